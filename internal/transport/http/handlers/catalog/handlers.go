package cataloghandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"boutika/internal/domain/approval"
	"boutika/internal/domain/audit"
	"boutika/internal/domain/auth"
	"boutika/internal/domain/catalog"
	"boutika/internal/domain/messaging"
	"boutika/internal/transport/http/api"
	"boutika/internal/transport/http/middleware"
	"boutika/internal/transport/http/shared"
)

type Handler struct {
	Service   *catalog.Service
	Approvals *approval.Service
	Users     *auth.Store
	Perms     middleware.PermissionStore
	Notify    *messaging.Service
	Audit     *audit.Service
}

func NewHandler(service *catalog.Service, approvals *approval.Service, users *auth.Store, perms middleware.PermissionStore, notify *messaging.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Approvals: approvals, Users: users, Perms: perms, Notify: notify, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermCatalogRead, h.Perms)).Get("/", h.handleListProducts)
		r.With(middleware.RequirePermission(auth.PermCatalogWrite, h.Perms)).Post("/", h.handleCreateProduct)
		r.With(middleware.RequirePermission(auth.PermCatalogRead, h.Perms)).Get("/{productID}", h.handleGetProduct)
		r.With(middleware.RequirePermission(auth.PermCatalogWrite, h.Perms)).Put("/{productID}", h.handleUpdateProduct)
		r.With(middleware.RequirePermission(auth.PermCatalogWrite, h.Perms)).Post("/{productID}/stock", h.handleAdjustProductStock)
		r.With(middleware.RequirePermission(auth.PermCatalogDelete, h.Perms)).Delete("/{productID}", h.handleDeleteProduct)
	})
	r.Route("/ingredients", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermCatalogRead, h.Perms)).Get("/", h.handleListIngredients)
		r.With(middleware.RequirePermission(auth.PermCatalogWrite, h.Perms)).Post("/", h.handleCreateIngredient)
		r.With(middleware.RequirePermission(auth.PermCatalogRead, h.Perms)).Get("/{ingredientID}", h.handleGetIngredient)
		r.With(middleware.RequirePermission(auth.PermCatalogWrite, h.Perms)).Put("/{ingredientID}", h.handleUpdateIngredient)
		r.With(middleware.RequirePermission(auth.PermCatalogWrite, h.Perms)).Post("/{ingredientID}/stock", h.handleAdjustIngredientStock)
		r.With(middleware.RequirePermission(auth.PermCatalogDelete, h.Perms)).Delete("/{ingredientID}", h.handleDeleteIngredient)
	})
	r.With(middleware.RequirePermission(auth.PermCatalogRead, h.Perms)).Get("/catalog/low-stock", h.handleLowStock)
}

func (h *Handler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	p := shared.ParsePagination(r, 50, 200)
	result, err := h.Service.ListProducts(r.Context(), user.WorkspaceID, r.URL.Query().Get("search"), p.Limit, p.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "products_list_failed", "failed to list products", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var payload catalog.Product
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	v.Required("name", payload.Name, "name is required")
	v.Positive("price", payload.Price, "price must be positive")
	if payload.Stock < 0 {
		v.Add("stock", "must not be negative")
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	id, err := h.Service.CreateProduct(r.Context(), user.WorkspaceID, user.UserID, payload)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "product_create_failed", "failed to create product", middleware.GetRequestID(r.Context()))
		return
	}
	h.record(r, user, "catalog.product.create", "product", id, payload)
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	product, err := h.Service.GetProduct(r.Context(), user.WorkspaceID, chi.URLParam(r, "productID"))
	if errors.Is(err, pgx.ErrNoRows) {
		api.Fail(w, http.StatusNotFound, "not_found", "product not found", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "product_get_failed", "failed to load product", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, product, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	productID := chi.URLParam(r, "productID")

	var payload catalog.Product
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	v.Required("name", payload.Name, "name is required")
	v.Positive("price", payload.Price, "price must be positive")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	if err := h.Service.UpdateProduct(r.Context(), user.WorkspaceID, productID, payload); err != nil {
		api.Fail(w, http.StatusInternalServerError, "product_update_failed", "failed to update product", middleware.GetRequestID(r.Context()))
		return
	}
	h.record(r, user, "catalog.product.update", "product", productID, payload)
	api.Success(w, map[string]string{"id": productID}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleAdjustProductStock(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	productID := chi.URLParam(r, "productID")

	var payload catalog.StockAdjustment
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	stock, err := h.Service.AdjustProductStock(r.Context(), user.WorkspaceID, productID, payload.Delta)
	if errors.Is(err, catalog.ErrInsufficientStock) {
		api.Fail(w, http.StatusConflict, "insufficient_stock", "stock cannot go negative", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "stock_adjust_failed", "failed to adjust stock", middleware.GetRequestID(r.Context()))
		return
	}
	h.record(r, user, "catalog.product.stock", "product", productID, payload)
	api.Success(w, map[string]any{"id": productID, "stock": stock}, middleware.GetRequestID(r.Context()))
}

// handleDeleteProduct runs the deletion rule engine first. Deletes that
// need review return 202 with the queued request; the rest delete
// immediately.
func (h *Handler) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	productID := chi.URLParam(r, "productID")

	product, err := h.Service.GetProduct(r.Context(), user.WorkspaceID, productID)
	if errors.Is(err, pgx.ErrNoRows) {
		api.Fail(w, http.StatusNotFound, "not_found", "product not found", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "product_get_failed", "failed to load product", middleware.GetRequestID(r.Context()))
		return
	}

	actor := h.actor(r, user)
	item := approval.Item{
		ID:        product.ID,
		CreatedBy: product.CreatedBy,
		CreatedAt: product.CreatedAt,
		UpdatedAt: product.UpdatedAt,
		Stock:     product.Stock,
		MinStock:  product.MinStock,
		Price:     product.Price,
	}
	decision := h.Approvals.RequiresApproval(item, actor, approval.TypeProduct, approval.Aggregates{})
	if decision.Required {
		h.queueRequest(w, r, user, actor, approval.TypeProduct, productID, product, decision)
		return
	}

	if err := h.Service.DeleteProduct(r.Context(), user.WorkspaceID, productID); err != nil {
		api.Fail(w, http.StatusInternalServerError, "product_delete_failed", "failed to delete product", middleware.GetRequestID(r.Context()))
		return
	}
	h.record(r, user, "catalog.product.delete", "product", productID, nil)
	api.Success(w, map[string]bool{"deleted": true}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListIngredients(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	p := shared.ParsePagination(r, 50, 200)
	items, total, err := h.Service.ListIngredients(r.Context(), user.WorkspaceID, p.Limit, p.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "ingredients_list_failed", "failed to list ingredients", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{"ingredients": items, "total": total}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateIngredient(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var payload catalog.Ingredient
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	v.Required("name", payload.Name, "name is required")
	v.Required("unit", payload.Unit, "unit is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	id, err := h.Service.CreateIngredient(r.Context(), user.WorkspaceID, user.UserID, payload)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "ingredient_create_failed", "failed to create ingredient", middleware.GetRequestID(r.Context()))
		return
	}
	h.record(r, user, "catalog.ingredient.create", "ingredient", id, payload)
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetIngredient(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	ingredient, err := h.Service.GetIngredient(r.Context(), user.WorkspaceID, chi.URLParam(r, "ingredientID"))
	if errors.Is(err, pgx.ErrNoRows) {
		api.Fail(w, http.StatusNotFound, "not_found", "ingredient not found", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "ingredient_get_failed", "failed to load ingredient", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, ingredient, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateIngredient(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	ingredientID := chi.URLParam(r, "ingredientID")

	var payload catalog.Ingredient
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	v.Required("name", payload.Name, "name is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	if err := h.Service.UpdateIngredient(r.Context(), user.WorkspaceID, ingredientID, payload); err != nil {
		api.Fail(w, http.StatusInternalServerError, "ingredient_update_failed", "failed to update ingredient", middleware.GetRequestID(r.Context()))
		return
	}
	h.record(r, user, "catalog.ingredient.update", "ingredient", ingredientID, payload)
	api.Success(w, map[string]string{"id": ingredientID}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleAdjustIngredientStock(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	ingredientID := chi.URLParam(r, "ingredientID")

	var payload catalog.StockAdjustment
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	stock, err := h.Service.AdjustIngredientStock(r.Context(), user.WorkspaceID, ingredientID, payload.Delta)
	if errors.Is(err, catalog.ErrInsufficientStock) {
		api.Fail(w, http.StatusConflict, "insufficient_stock", "stock cannot go negative", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "stock_adjust_failed", "failed to adjust stock", middleware.GetRequestID(r.Context()))
		return
	}
	h.record(r, user, "catalog.ingredient.stock", "ingredient", ingredientID, payload)
	api.Success(w, map[string]any{"id": ingredientID, "stock": stock}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteIngredient(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	ingredientID := chi.URLParam(r, "ingredientID")

	ingredient, err := h.Service.GetIngredient(r.Context(), user.WorkspaceID, ingredientID)
	if errors.Is(err, pgx.ErrNoRows) {
		api.Fail(w, http.StatusNotFound, "not_found", "ingredient not found", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "ingredient_get_failed", "failed to load ingredient", middleware.GetRequestID(r.Context()))
		return
	}

	actor := h.actor(r, user)
	item := approval.Item{
		ID:        ingredient.ID,
		CreatedBy: ingredient.CreatedBy,
		CreatedAt: ingredient.CreatedAt,
		UpdatedAt: ingredient.UpdatedAt,
		Stock:     ingredient.Stock,
		MinStock:  ingredient.MinStock,
	}
	extra := approval.Aggregates{EstimatedValue: catalog.IngredientValue(ingredient.Stock, ingredient.UnitCost)}
	decision := h.Approvals.RequiresApproval(item, actor, approval.TypeIngredient, extra)
	if decision.Required {
		h.queueRequest(w, r, user, actor, approval.TypeIngredient, ingredientID, ingredient, decision)
		return
	}

	if err := h.Service.DeleteIngredient(r.Context(), user.WorkspaceID, ingredientID); err != nil {
		api.Fail(w, http.StatusInternalServerError, "ingredient_delete_failed", "failed to delete ingredient", middleware.GetRequestID(r.Context()))
		return
	}
	h.record(r, user, "catalog.ingredient.delete", "ingredient", ingredientID, nil)
	api.Success(w, map[string]bool{"deleted": true}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleLowStock(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	items, err := h.Service.LowStock(r.Context(), user.WorkspaceID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "low_stock_failed", "failed to list low stock", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, items, middleware.GetRequestID(r.Context()))
}

func (h *Handler) actor(r *http.Request, user auth.UserContext) approval.Actor {
	name, err := h.Users.UserName(r.Context(), user.WorkspaceID, user.UserID)
	if err != nil {
		slog.Warn("actor name lookup failed", "err", err)
	}
	return approval.Actor{UserID: user.UserID, Name: name, Role: user.Role}
}

func (h *Handler) queueRequest(w http.ResponseWriter, r *http.Request, user auth.UserContext, actor approval.Actor, itemType approval.ItemType, itemID string, snapshot any, decision approval.Decision) {
	requestID, err := h.Approvals.Create(r.Context(), user.WorkspaceID, itemType, itemID, snapshot, actor, decision.Reasons)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "approval_queue_failed", "failed to queue deletion request", middleware.GetRequestID(r.Context()))
		return
	}

	title := "Demande de suppression: " + approval.TypeLabel(itemType)
	body := "Demandée par " + actor.Name
	if err := h.Notify.NotifyRoles(r.Context(), user.WorkspaceID, []string{auth.RoleAdmin, auth.RoleOwner}, messaging.TypeApprovalRequested, title, body); err != nil {
		slog.Warn("approval notification failed", "err", err)
	}
	h.record(r, user, "approval.request.create", string(itemType), itemID, map[string]any{"requestId": requestID, "reasons": decision.Reasons})

	api.Accepted(w, map[string]any{
		"approvalRequired": true,
		"requestId":        requestID,
		"reasons":          decision.Reasons,
		"reasonsText":      approval.TranslateReasons(decision.Reasons),
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) record(r *http.Request, user auth.UserContext, action, entityType, entityID string, details any) {
	if h.Audit == nil {
		return
	}
	err := h.Audit.Record(r.Context(), user.WorkspaceID, user.UserID, action, entityType, entityID,
		middleware.GetRequestID(r.Context()), middleware.ClientIP(r), details)
	if err != nil {
		slog.Warn("audit record failed", "action", action, "err", err)
	}
}
