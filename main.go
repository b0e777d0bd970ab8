package main

import (
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/cors"

	"sprintdesk/database"
	"sprintdesk/handlers"
	"sprintdesk/logging"
	"sprintdesk/services"
)

func main() {
	logging.Init("sprintdesk")
	logger := logging.Logger

	// Load environment variables from .env file when present
	if err := godotenv.Load(".env"); err != nil {
		logger.Warnf("No .env file loaded: %v", err)
	}

	// Initialize database
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "./sprintdesk.db"
	}
	db, err := database.InitDB(dbPath)
	if err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()
	logger.Infof("Database initialized at %s", dbPath)

	store := database.NewStore(db)

	// Initialize services
	authService := services.NewAuthService(logger)
	hub := services.NewHub(logger)
	go hub.Run()
	boardService := services.NewBoardService(store, hub, logger)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, store, logger)
	authMiddleware := handlers.NewAuthMiddleware(authService)
	projectHandler := handlers.NewProjectHandler(store, logger)
	taskHandler := handlers.NewTaskHandler(store, boardService, hub, logger)
	sprintHandler := handlers.NewSprintHandler(store, hub, logger)
	epicHandler := handlers.NewEpicHandler(store, hub, logger)
	timeHandler := handlers.NewTimeEntryHandler(store, logger)
	invoiceHandler := handlers.NewInvoiceHandler(store, logger)
	statsHandler := handlers.NewStatsHandler(store, logger)
	prefsHandler := handlers.NewPrefsHandler(store, logger)
	wsHandler := handlers.NewWebSocketHandler(authService, store, hub, logger)

	// Setup router
	r := mux.NewRouter()
	r.Use(handlers.RequestLogger(logger))

	// Auth routes
	r.HandleFunc("/api/auth/login", authHandler.Login).Methods("POST")
	r.HandleFunc("/api/auth/verify", authHandler.VerifyToken).Methods("GET")
	r.HandleFunc("/api/auth/magic-link", authHandler.HandleMagicLink).Methods("GET")

	// WebSocket route for refresh events (token via query parameter)
	r.HandleFunc("/api/ws", wsHandler.HandleWebSocket)

	// Protected API routes
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authMiddleware.Auth)

	api.HandleFunc("/clients", projectHandler.CreateClient).Methods("POST")
	api.HandleFunc("/clients", projectHandler.ListClients).Methods("GET")

	api.HandleFunc("/projects", projectHandler.CreateProject).Methods("POST")
	api.HandleFunc("/projects", projectHandler.ListProjects).Methods("GET")
	api.HandleFunc("/projects/{id}", projectHandler.GetProject).Methods("GET")
	api.HandleFunc("/projects/{id}", projectHandler.UpdateProject).Methods("PUT")
	api.HandleFunc("/projects/{id}", projectHandler.DeleteProject).Methods("DELETE")
	api.HandleFunc("/projects/{id}/members", projectHandler.AddMember).Methods("POST")
	api.HandleFunc("/projects/{id}/members", projectHandler.ListMembers).Methods("GET")
	api.HandleFunc("/projects/{id}/members/{userId}", projectHandler.RemoveMember).Methods("DELETE")

	api.HandleFunc("/projects/{id}/tasks", taskHandler.CreateTask).Methods("POST")
	api.HandleFunc("/projects/{id}/tasks", taskHandler.ListTasks).Methods("GET")
	api.HandleFunc("/projects/{id}/board", taskHandler.BoardView).Methods("GET")
	api.HandleFunc("/projects/{id}/board/move", taskHandler.MoveTask).Methods("POST")
	api.HandleFunc("/tasks/{taskId}", taskHandler.GetTask).Methods("GET")
	api.HandleFunc("/tasks/{taskId}", taskHandler.UpdateTask).Methods("PUT")
	api.HandleFunc("/tasks/{taskId}", taskHandler.DeleteTask).Methods("DELETE")

	api.HandleFunc("/projects/{id}/sprints", sprintHandler.CreateSprint).Methods("POST")
	api.HandleFunc("/projects/{id}/sprints", sprintHandler.ListSprints).Methods("GET")
	api.HandleFunc("/sprints/{sprintId}", sprintHandler.UpdateSprint).Methods("PUT")
	api.HandleFunc("/sprints/{sprintId}/activate", sprintHandler.ActivateSprint).Methods("POST")
	api.HandleFunc("/sprints/{sprintId}", sprintHandler.DeleteSprint).Methods("DELETE")

	api.HandleFunc("/projects/{id}/epics", epicHandler.CreateEpic).Methods("POST")
	api.HandleFunc("/projects/{id}/epics", epicHandler.ListEpics).Methods("GET")
	api.HandleFunc("/epics/{epicId}", epicHandler.UpdateEpic).Methods("PUT")
	api.HandleFunc("/epics/{epicId}", epicHandler.DeleteEpic).Methods("DELETE")

	api.HandleFunc("/projects/{id}/time-entries", timeHandler.CreateTimeEntry).Methods("POST")
	api.HandleFunc("/projects/{id}/time-entries", timeHandler.ListTimeEntries).Methods("GET")
	api.HandleFunc("/time-entries/{entryId}", timeHandler.UpdateTimeEntry).Methods("PUT")
	api.HandleFunc("/time-entries/{entryId}", timeHandler.DeleteTimeEntry).Methods("DELETE")

	api.HandleFunc("/projects/{id}/invoices", invoiceHandler.CreateInvoice).Methods("POST")
	api.HandleFunc("/projects/{id}/invoices", invoiceHandler.ListInvoices).Methods("GET")
	api.HandleFunc("/invoices/{invoiceId}", invoiceHandler.UpdateInvoice).Methods("PUT")
	api.HandleFunc("/invoices/{invoiceId}", invoiceHandler.DeleteInvoice).Methods("DELETE")

	api.HandleFunc("/projects/{id}/stats/tasks", statsHandler.TaskStats).Methods("GET")
	api.HandleFunc("/projects/{id}/stats/time", statsHandler.TimeStats).Methods("GET")
	api.HandleFunc("/projects/{id}/stats/billing", statsHandler.BillingStats).Methods("GET")

	api.HandleFunc("/projects/{id}/prefs", prefsHandler.GetPrefs).Methods("GET")
	api.HandleFunc("/projects/{id}/prefs", prefsHandler.SetPref).Methods("PUT")

	// Setup CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // In production, change to your domain
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	// Get port from environment or use default
	port := os.Getenv("PORT")
	if port == "" {
		port = "3001"
	}

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      c.Handler(r),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Infof("Server starting on port %s", port)
	logger.Fatal(server.ListenAndServe())
}
