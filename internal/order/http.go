package order

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"MiniPOS/internal/catalog"
	"MiniPOS/pkg/kit"
	"MiniPOS/pkg/money"
)

type ProductLookup interface {
	Get(id string) (catalog.Product, bool)
}

type Server struct {
	Workflow *Workflow
	Catalog  ProductLookup
	Log      *zap.Logger
	Location *time.Location
}

type addItemReq struct {
	ProductID string `json:"product_id"`
}

type currentResp struct {
	Items      []catalog.Product `json:"items"`
	Lines      []Line            `json:"lines"`
	TotalCents int64             `json:"totalCents"`
	Total      string            `json:"total"`
}

type orderView struct {
	Order
	Lines    []Line `json:"lines"`
	Total    string `json:"total"`
	PlacedAt string `json:"placedAt"`
}

// Routes serves the order being built; mount at /order.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/", s.current)
	r.Delete("/", s.clear)
	r.Post("/items", s.addItem)
	r.Delete("/items/last", s.undo)
	r.Post("/checkout", s.checkout)
	return r
}

func (s *Server) ListHandler() http.HandlerFunc  { return s.list }
func (s *Server) ClearHandler() http.HandlerFunc { return s.clearOrders }

func (s *Server) current(w http.ResponseWriter, _ *http.Request) {
	kit.WriteJSON(w, http.StatusOK, s.currentView())
}

func (s *Server) addItem(w http.ResponseWriter, r *http.Request) {
	var req addItemReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	id := strings.TrimSpace(req.ProductID)
	if id == "" {
		kit.WriteError(w, r, http.StatusBadRequest, "product_id required", nil)
		return
	}

	p, ok := s.Catalog.Get(id)
	if !ok {
		kit.WriteError(w, r, http.StatusNotFound, catalog.ErrNotFound.Error(), map[string]any{"id": id})
		return
	}

	s.Workflow.AddItem(p)
	kit.WriteJSON(w, http.StatusOK, s.currentView())
}

func (s *Server) undo(w http.ResponseWriter, _ *http.Request) {
	s.Workflow.UndoLastItem()
	kit.WriteJSON(w, http.StatusOK, s.currentView())
}

func (s *Server) clear(w http.ResponseWriter, _ *http.Request) {
	s.Workflow.ClearOrder()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) checkout(w http.ResponseWriter, r *http.Request) {
	o, ok := s.Workflow.Checkout(r.Context())
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	kit.WriteJSON(w, http.StatusCreated, s.view(o))
}

func (s *Server) list(w http.ResponseWriter, _ *http.Request) {
	orders := s.Workflow.Orders()

	out := make([]orderView, 0, len(orders))
	for _, o := range orders {
		out = append(out, s.view(o))
	}
	kit.WriteJSON(w, http.StatusOK, out)
}

func (s *Server) clearOrders(w http.ResponseWriter, r *http.Request) {
	if err := s.Workflow.ClearOrders(r.Context()); err != nil {
		if s.Log != nil {
			s.Log.Error("clear orders failed", zap.Error(err))
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) currentView() currentResp {
	items := s.Workflow.CurrentOrder()
	if items == nil {
		items = []catalog.Product{}
	}
	total := TotalCents(items)
	return currentResp{
		Items:      items,
		Lines:      Summarize(items),
		TotalCents: total,
		Total:      money.FormatEUR(total),
	}
}

func (s *Server) view(o Order) orderView {
	return orderView{
		Order:    o,
		Lines:    Summarize(o.Items),
		Total:    money.FormatEUR(o.TotalCents),
		PlacedAt: money.FormatDateTime(o.Timestamp, s.Location),
	}
}
