package clients

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	httputil "calbook/pkg/http"
	"calbook/pkg/logger"
)

type Handler struct {
	directory *Directory
	log       *logger.Logger
}

func NewHandler(directory *Directory, log *logger.Logger) *Handler {
	return &Handler{
		directory: directory,
		log:       log,
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := httputil.WriteSuccess(w, h.directory.List()); err != nil {
		h.log.Error("failed to write success response", "handler", "List", "operation", "WriteSuccess", "error", err)
	}
}

func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	client, err := h.directory.Get(ps.ByName("id"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetByID", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, client); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *Handler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/clients", h.List)
	router.GET("/api/v1/clients/id/:id", h.GetByID)
}
