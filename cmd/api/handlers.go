package main

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/lennartz/go-webshop/internal/auth"
	"github.com/lennartz/go-webshop/internal/models"
	"github.com/lennartz/go-webshop/internal/store"
)

func (app *application) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := store.RegisterUser(r.Context(), app.db, req.Username, req.Email, req.Password)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, user)
}

func (app *application) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := store.AuthenticateUser(r.Context(), app.db, req.Email, req.Password)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	token, err := app.sessions.CreateUser(r.Context(), user.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
	})
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

func (app *application) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if token := sessionToken(r); token != "" {
		if err := app.sessions.Delete(r.Context(), token); err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (app *application) handleProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	switch r.Method {
	case http.MethodGet:
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page < 1 {
			page = 1
		}
		pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
		if pageSize < 1 || pageSize > 100 {
			pageSize = 20
		}

		result, err := store.ListProducts(ctx, app.db, page, pageSize)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		respondJSON(w, http.StatusOK, result)

	case http.MethodPost:
		identity, ok := auth.IdentityFromContext(ctx)
		if !ok {
			respondError(w, http.StatusUnauthorized, "login required")
			return
		}
		if !identity.IsAdmin {
			respondError(w, http.StatusForbidden, "admin access required")
			return
		}

		var req struct {
			Name        string `json:"name"`
			Description string `json:"description"`
			Price       string `json:"price"`
			Image       string `json:"image"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		price, err := decimal.NewFromString(req.Price)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid price")
			return
		}

		product, err := store.CreateProduct(ctx, app.db, req.Name, req.Description, price, req.Image)
		if err != nil {
			respondStoreError(w, err)
			return
		}

		respondJSON(w, http.StatusCreated, product)

	default:
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (app *application) handleProductByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rest := strings.TrimPrefix(r.URL.Path, "/products/")
	if idStr, ok := strings.CutSuffix(rest, "/reviews"); ok {
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid product ID")
			return
		}
		app.handleProductReviews(w, r, id)
		return
	}

	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	switch r.Method {
	case http.MethodGet:
		product, err := store.GetProduct(ctx, app.db, id)
		if err != nil {
			respondStoreError(w, err)
			return
		}

		reviews, err := store.ListProductReviews(ctx, app.db, id)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		respondJSON(w, http.StatusOK, map[string]interface{}{
			"product": product,
			"reviews": reviews,
		})

	case http.MethodPut:
		identity, ok := auth.IdentityFromContext(ctx)
		if !ok {
			respondError(w, http.StatusUnauthorized, "login required")
			return
		}
		if !identity.IsAdmin {
			respondError(w, http.StatusForbidden, "admin access required")
			return
		}

		var req struct {
			Name        string `json:"name"`
			Description string `json:"description"`
			Price       string `json:"price"`
			Image       string `json:"image"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		price, err := decimal.NewFromString(req.Price)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid price")
			return
		}

		product, err := store.UpdateProduct(ctx, app.db, id, req.Name, req.Description, price, req.Image)
		if err != nil {
			respondStoreError(w, err)
			return
		}

		respondJSON(w, http.StatusOK, product)

	case http.MethodDelete:
		identity, ok := auth.IdentityFromContext(ctx)
		if !ok {
			respondError(w, http.StatusUnauthorized, "login required")
			return
		}
		if !identity.IsAdmin {
			respondError(w, http.StatusForbidden, "admin access required")
			return
		}

		if err := store.DeleteProduct(ctx, app.db, id); err != nil {
			respondStoreError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)

	default:
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (app *application) handleProductReviews(w http.ResponseWriter, r *http.Request, productID int64) {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok || identity.UserID == 0 {
		respondError(w, http.StatusUnauthorized, "login required")
		return
	}

	var req struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	review, err := store.CreateReview(ctx, app.db, productID, identity.UserID, req.Rating, req.Comment)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, review)
}

func (app *application) handleCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, _ := auth.IdentityFromContext(ctx)

	switch r.Method {
	case http.MethodGet:
		cart, err := store.GetCart(ctx, app.db, identity.UserID)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		respondJSON(w, http.StatusOK, cart)

	case http.MethodPost:
		var req struct {
			ProductID int64 `json:"product_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		item, err := store.AddCartItem(ctx, app.db, identity.UserID, req.ProductID)
		if err != nil {
			respondStoreError(w, err)
			return
		}

		respondJSON(w, http.StatusCreated, item)

	default:
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (app *application) handleCartItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, _ := auth.IdentityFromContext(ctx)

	idStr := strings.TrimPrefix(r.URL.Path, "/cart/")
	itemID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid cart item ID")
		return
	}

	switch r.Method {
	case http.MethodPost:
		var req struct {
			Delta int `json:"delta"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		switch req.Delta {
		case 1:
			err = store.IncreaseCartItem(ctx, app.db, identity.UserID, itemID)
		case -1:
			err = store.DecreaseCartItem(ctx, app.db, identity.UserID, itemID)
		default:
			respondError(w, http.StatusBadRequest, "delta must be 1 or -1")
			return
		}
		if err != nil {
			respondStoreError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)

	case http.MethodDelete:
		if err := store.RemoveCartItem(ctx, app.db, identity.UserID, itemID); err != nil {
			respondStoreError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)

	default:
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (app *application) handleCheckout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, _ := auth.IdentityFromContext(ctx)

	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req struct {
		Name    string `json:"name"`
		Address string `json:"address"`
		City    string `json:"city"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := store.Checkout(ctx, app.db, identity.UserID, models.ShippingInfo{
		Name:    req.Name,
		Address: req.Address,
		City:    req.City,
	})
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, order)
}

func (app *application) handleOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, _ := auth.IdentityFromContext(ctx)

	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	result, err := store.ListUserOrders(ctx, app.db, identity.UserID, r.URL.Query().Get("cursor"), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (app *application) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	userID, ok, err := app.verifier.Verify(r.Context(), req.Username, req.Password)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := app.sessions.CreateAdmin(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
	})
	respondJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (app *application) handleAdminOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	result, err := store.ListAllOrders(ctx, app.db, r.URL.Query().Get("cursor"), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, result)
}
