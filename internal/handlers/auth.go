package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/syrlavka/shop/internal/hash"
	"github.com/syrlavka/shop/internal/logging"
	"github.com/syrlavka/shop/internal/models"
	"github.com/syrlavka/shop/internal/mykafka"
	"github.com/syrlavka/shop/internal/service/token"
	"github.com/syrlavka/shop/internal/store"
)

type AuthHandler struct {
	DB            *gorm.DB
	Store         *store.Store
	Producer      *mykafka.Producer
	JWTSecret     []byte
	RefreshSecret []byte

	mu sync.Mutex
}

func (h *AuthHandler) publish(c echo.Context, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "user_events", fmt.Sprint(event["userID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func roleOf(u models.User) string {
	if u.IsAdmin {
		return "admin"
	}
	return "user"
}

func nextUserID(users []models.User) uint {
	var max uint
	for _, u := range users {
		if u.ID > max {
			max = u.ID
		}
	}
	return max + 1
}

func (h *AuthHandler) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Email == "" || req.Password == "" {
		l.Warn("register_failed", "status", 400, "reason", "email and password required")
		return echo.NewHTTPError(http.StatusBadRequest, "email and password required")
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		l.Error("register_failed", "status", 500, "reason", "cannot hash password", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot hash password")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	users, err := h.Store.LoadUsers(ctx)
	if err != nil {
		l.Error("register_failed", "status", 500, "reason", "cannot load users", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load users")
	}
	for _, u := range users {
		if u.Email == req.Email {
			l.Warn("register_failed", "status", 409, "reason", "email already registered")
			return echo.NewHTTPError(http.StatusConflict, "user already exists")
		}
	}

	user := models.User{
		ID:           nextUserID(users),
		Email:        req.Email,
		PasswordHash: pwHash,
		CustomerType: models.CustomerRetail,
	}
	users = append(users, user)
	if err := h.Store.SaveUsers(ctx, users); err != nil {
		l.Error("register_failed", "status", 500, "reason", "cannot save users", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot save users")
	}

	h.publish(c, map[string]any{
		"type":   "user_registered",
		"userID": user.ID,
		"email":  user.Email,
	})
	l.Info("register_success", "userID", user.ID)

	user.PasswordHash = ""
	return c.JSON(http.StatusCreated, user)
}

func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	users, err := h.Store.LoadUsers(ctx)
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot load users", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load users")
	}

	var user *models.User
	for i := range users {
		if users[i].Email == req.Email {
			user = &users[i]
			break
		}
	}
	if user == nil {
		l.Warn("login_failed", "status", 401, "reason", "email not found")
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid email or password")
	}
	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		l.Warn("login_failed", "status", 401, "reason", "wrong password", "userID", user.ID)
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid email or password")
	}

	role := roleOf(*user)
	accessToken, err := token.SignAccessToken(user.ID, role, user.CustomerType, h.JWTSecret)
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot sign access token", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot sign token")
	}
	refreshToken, err := token.SignRefreshToken(user.ID, role, user.CustomerType, h.RefreshSecret)
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot sign refresh token", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot sign token")
	}
	if err := token.SaveRefreshToken(h.DB, refreshToken, user.ID); err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot store refresh token", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot store token")
	}

	c.SetCookie(token.CreateCookie("accessToken", accessToken, "/", time.Now().Add(15*time.Minute)))
	c.SetCookie(token.CreateCookie("refreshToken", refreshToken, "/", time.Now().Add(7*24*time.Hour)))

	h.publish(c, map[string]any{
		"type":   "user_logged_in",
		"userID": user.ID,
	})
	l.Info("login_success", "userID", user.ID)

	return c.JSON(http.StatusOK, map[string]any{
		"id":            user.ID,
		"email":         user.Email,
		"is_admin":      user.IsAdmin,
		"customer_type": user.CustomerType,
	})
}

func (h *AuthHandler) LogOut(c echo.Context) error {
	if cookie, err := c.Cookie("refreshToken"); err == nil {
		if err := h.DB.Model(&models.RefreshToken{}).
			Where("token = ?", cookie.Value).
			Update("revoked", true).Error; err != nil {
			c.Logger().Errorf("revoke refresh token: %v", err)
		}
	}

	c.SetCookie(token.CreateCookie("accessToken", "", "/", time.Unix(0, 0)))
	c.SetCookie(token.CreateCookie("refreshToken", "", "/", time.Unix(0, 0)))
	return c.NoContent(http.StatusNoContent)
}

// UpdateProfile sets the optional profile fields of the current user.
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.update_profile")

	userID, _ := c.Get("userID").(uint)

	var req struct {
		Name    string `json:"name"`
		City    string `json:"city"`
		Address string `json:"address"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	users, err := h.Store.LoadUsers(ctx)
	if err != nil {
		l.Error("update_profile_failed", "status", 500, "reason", "cannot load users", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load users")
	}

	updated := false
	for i := range users {
		if users[i].ID == userID {
			users[i].Name = req.Name
			users[i].City = req.City
			users[i].Address = req.Address
			updated = true
			break
		}
	}
	if !updated {
		l.Warn("update_profile_failed", "status", 404, "reason", "user not found", "userID", userID)
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	}
	if err := h.Store.SaveUsers(ctx, users); err != nil {
		l.Error("update_profile_failed", "status", 500, "reason", "cannot save users", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot save users")
	}

	l.Info("update_profile_success", "userID", userID)
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) ChangePassword(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.change_password")

	userID, _ := c.Get("userID").(uint)

	var req struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.NewPassword == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "new password required")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	users, err := h.Store.LoadUsers(ctx)
	if err != nil {
		l.Error("change_password_failed", "status", 500, "reason", "cannot load users", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load users")
	}

	for i := range users {
		if users[i].ID != userID {
			continue
		}
		if !hash.CheckPassword(users[i].PasswordHash, req.OldPassword) {
			l.Warn("change_password_failed", "status", 401, "reason", "wrong password", "userID", userID)
			return echo.NewHTTPError(http.StatusUnauthorized, "wrong password")
		}
		pwHash, err := hash.HashPassword(req.NewPassword)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot hash password")
		}
		users[i].PasswordHash = pwHash
		if err := h.Store.SaveUsers(ctx, users); err != nil {
			l.Error("change_password_failed", "status", 500, "reason", "cannot save users", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot save users")
		}
		l.Info("change_password_success", "userID", userID)
		return c.NoContent(http.StatusNoContent)
	}

	return echo.NewHTTPError(http.StatusNotFound, "user not found")
}

// ListUsers returns the full user list for the admin customers view.
func (h *AuthHandler) ListUsers(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.list_users")

	users, err := h.Store.LoadUsers(ctx)
	if err != nil {
		l.Error("list_users_failed", "status", 500, "reason", "cannot load users", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load users")
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return c.JSON(http.StatusOK, users)
}

// SetCustomerType assigns a wholesale tier to a user.
func (h *AuthHandler) SetCustomerType(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.set_customer_type")

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "id is not an integer")
	}

	var req struct {
		CustomerType models.CustomerType `json:"customer_type"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if !req.CustomerType.Valid() {
		l.Warn("set_customer_type_failed", "status", 400, "reason", "unknown customer type")
		return echo.NewHTTPError(http.StatusBadRequest, "unknown customer type")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	users, err := h.Store.LoadUsers(ctx)
	if err != nil {
		l.Error("set_customer_type_failed", "status", 500, "reason", "cannot load users", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load users")
	}

	for i := range users {
		if users[i].ID == uint(id) {
			users[i].CustomerType = req.CustomerType
			if err := h.Store.SaveUsers(ctx, users); err != nil {
				l.Error("set_customer_type_failed", "status", 500, "reason", "cannot save users", "error", err)
				return echo.NewHTTPError(http.StatusInternalServerError, "cannot save users")
			}
			h.publish(c, map[string]any{
				"type":          "customer_type_changed",
				"userID":        users[i].ID,
				"customer_type": req.CustomerType,
			})
			l.Info("set_customer_type_success", "userID", users[i].ID, "customer_type", req.CustomerType)
			return c.NoContent(http.StatusNoContent)
		}
	}

	l.Warn("set_customer_type_failed", "status", 404, "reason", "user not found")
	return echo.NewHTTPError(http.StatusNotFound, "user not found")
}
