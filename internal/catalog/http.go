package catalog

import (
	"net/http"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"MiniPOS/pkg/kit"
)

type Server struct {
	Catalog *Service
	Log     *zap.Logger
}

// Routes is the read-only catalog used by the POS screen.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/", s.list)
	r.Get("/{id}", s.get)
	return r
}

// AdminRoutes must be mounted behind the admin gate.
func (s *Server) AdminRoutes() http.Handler {
	r := chi.NewRouter()
	r.Get("/", s.list)
	r.Post("/", s.create)
	r.Put("/{id}", s.update)
	r.Delete("/{id}", s.remove)
	return r
}

// CategoriesHandler lists the fixed category enumeration for the admin form.
func (s *Server) CategoriesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		kit.WriteJSON(w, http.StatusOK, Categories())
	}
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	products := s.Catalog.GetAll()
	if r.URL.Query().Get("sort") == "usage" {
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].UsageCount > products[j].UsageCount
		})
	}
	kit.WriteJSON(w, http.StatusOK, products)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, ok := s.Catalog.Get(id)
	if !ok {
		kit.WriteError(w, r, http.StatusNotFound, ErrNotFound.Error(), map[string]any{"id": id})
		return
	}
	kit.WriteJSON(w, http.StatusOK, p)
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	var in ProductInput
	if err := kit.DecodeJSON(w, r, &in); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	p, err := in.Validate()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	p.ID = s.Catalog.GenerateID(p.Name)

	if err := s.Catalog.Add(r.Context(), p); err != nil {
		s.writeError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusCreated, p)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var in ProductInput
	if err := kit.DecodeJSON(w, r, &in); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	p, err := in.Validate()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	current, ok := s.Catalog.Get(id)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	p.ID = current.ID
	if in.UsageCount == nil {
		p.UsageCount = current.UsageCount
	}

	if err := s.Catalog.Update(r.Context(), p); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) remove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.Catalog.Remove(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrInvalidProduct) {
		kit.WriteError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if s.Log != nil {
		s.Log.Error("catalog write failed", zap.Error(err))
	}
	kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
}
