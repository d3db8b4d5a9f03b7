package http

import (
	"net/http"
	"strconv"
)

func handleHealth(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleError renders a generic error body for requests routed to the
// error endpoint, optionally honoring an explicit ?status= code.
func handleError(w http.ResponseWriter, r *http.Request) {
	status := http.StatusInternalServerError
	if raw := r.URL.Query().Get("status"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 400 && parsed < 600 {
			status = parsed
		}
	}
	respondWithError(w, status, statusMessage(status))
}

func statusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "Solicitud inválida - verifique los datos enviados"
	case http.StatusUnauthorized:
		return "No autorizado - token JWT requerido"
	case http.StatusForbidden:
		return "Acceso prohibido - token JWT inválido o endpoint protegido"
	case http.StatusNotFound:
		return "Recurso no encontrado"
	case http.StatusConflict:
		return "Conflicto - el recurso ya existe"
	case http.StatusInternalServerError:
		return "Error interno del servidor"
	default:
		return "Error en la aplicación"
	}
}
