package main

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/lennartz/go-webshop/internal/auth"
	"github.com/lennartz/go-webshop/internal/config"
	"github.com/lennartz/go-webshop/internal/database"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Load config: %v", err)
	}

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		log.Fatalf("Connect to database: %v", err)
	}
	defer db.Close()

	log.Printf("Connected to database successfully")

	sessions := auth.NewSessions(db, cfg.Auth.SessionTTL)

	var verifier auth.CredentialVerifier
	if cfg.Auth.AdminUsername != "" && cfg.Auth.AdminPassword != "" {
		verifier = auth.FixedCredentials{
			Username: cfg.Auth.AdminUsername,
			Password: cfg.Auth.AdminPassword,
		}
		log.Printf("Admin login uses fixed credentials from environment")
	} else {
		verifier = auth.StoredCredentials{DB: db}
	}

	app := &application{
		db:       db,
		sessions: sessions,
		verifier: verifier,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/register", app.handleRegister)
	mux.HandleFunc("/login", app.handleLogin)
	mux.HandleFunc("/logout", app.handleLogout)

	mux.HandleFunc("/products", app.withIdentity(app.handleProducts))
	mux.HandleFunc("/products/", app.withIdentity(app.handleProductByID))

	mux.HandleFunc("/cart", app.withIdentity(app.requireUser(app.handleCart)))
	mux.HandleFunc("/cart/", app.withIdentity(app.requireUser(app.handleCartItem)))
	mux.HandleFunc("/checkout", app.withIdentity(app.requireUser(app.handleCheckout)))
	mux.HandleFunc("/orders", app.withIdentity(app.requireUser(app.handleOrders)))

	mux.HandleFunc("/admin/login", app.handleAdminLogin)
	mux.HandleFunc("/admin/orders", app.withIdentity(app.requireAdmin(app.handleAdminOrders)))

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	log.Printf("Server starting on port %s", cfg.Server.Port)
	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
