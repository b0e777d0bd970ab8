package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"sprintdesk/database"
	"sprintdesk/services"
)

var validate = validator.New()

// ErrForbidden is returned by role checks; it maps to a 403.
var ErrForbidden = errors.New("you do not have access to this project")

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"status": "success",
		"data":   data,
	})
}

func respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"status": "error",
		"error":  message,
	})
}

// decodeAndValidate parses the request body and runs struct validation,
// joining all failures into one message.
func decodeAndValidate(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.New("invalid request format")
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, ve := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed on %s", ve.Field(), ve.Tag()))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}
	return nil
}

// writeServiceError maps service and store failures onto the response
// taxonomy: not-found, forbidden, and domain rejections carry their message;
// anything else is logged server-side and reported generically.
func writeServiceError(w http.ResponseWriter, logger *logrus.Logger, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, ErrForbidden):
		respondError(w, http.StatusForbidden, ErrForbidden.Error())
	case errors.Is(err, services.ErrAllSprintsSelected):
		respondError(w, http.StatusConflict, err.Error())
	default:
		logger.Errorf("request failed: %v", err)
		respondError(w, http.StatusInternalServerError, "an unexpected error occurred")
	}
}
