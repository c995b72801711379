package handler

import (
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/dukerupert/nacp/internal/auth"
	"github.com/dukerupert/nacp/internal/model"
	"github.com/dukerupert/nacp/internal/store"
	"github.com/dukerupert/nacp/internal/validate"
)

var usernameRegexp = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,50}$`)

// AccountHandler registers and signs in census holders and agents.
type AccountHandler struct {
	userStore    *store.UserStore
	sessionStore *store.SessionStore
	render       *Renderer
	logger       *slog.Logger
}

func NewAccountHandler(us *store.UserStore, ss *store.SessionStore, render *Renderer, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{
		userStore:    us,
		sessionStore: ss,
		render:       render,
		logger:       logger,
	}
}

func (h *AccountHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	data := h.render.page(r, "Sign in")
	if r.URL.Query().Get("registered") != "" {
		data["Flash"] = "Account created. You can sign in now."
	}
	h.render.Page(w, http.StatusOK, "account_login.html", data)
}

// homeFor is where a role lands after signing in.
func homeFor(role string) string {
	switch role {
	case model.RoleAdmin:
		return "/admin"
	case model.RoleAgent:
		return "/agent"
	default:
		return "/survey"
	}
}

func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")

	fail := func(status int, msg string) {
		data := h.render.page(r, "Sign in")
		data["Username"] = username
		data["Errors"] = []string{msg}
		h.render.Page(w, status, "account_login.html", data)
	}

	u, err := h.userStore.GetByUsername(username)
	if err != nil {
		h.logger.Error("login lookup", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	hash := ""
	if u != nil {
		hash = u.PasswordHash
	}
	if !auth.CheckPassword(hash, password) {
		fail(http.StatusUnauthorized, "Invalid username or password")
		return
	}
	if !u.CanLogin() {
		fail(http.StatusForbidden, "Your account is waiting for administrator approval")
		return
	}

	sess, err := h.sessionStore.Create(&u.ID, u.Username, u.Role)
	if err != nil {
		h.logger.Error("create session", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	setSessionCookie(w, r, sess)
	h.logger.Info("user login", "username", u.Username, "role", u.Role)
	redirect(w, r, homeFor(u.Role))
}

func (h *AccountHandler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	data := h.render.page(r, "Create an account")
	data["Role"] = model.RoleHolder
	h.render.Page(w, http.StatusOK, "account_register.html", data)
}

// Register creates a holder (active at once) or an agent (pending approval).
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.FormValue("username"))
	emailAddr := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	role := r.FormValue("role")

	var errs validate.Errors
	errs.Check(usernameRegexp.MatchString(username), "Username must be 3 to 50 letters, digits, dots, dashes or underscores")
	errs.Check(validate.Email(emailAddr), "Enter a valid email address")
	errs.Check(len(password) >= auth.MinPasswordLength, "Password must be at least 8 characters")
	errs.Check(password == r.FormValue("confirm_password"), "Passwords do not match")
	errs.Check(role == model.RoleHolder || role == model.RoleAgent, "Choose Holder or Agent")

	if errs.Err() == nil {
		existing, err := h.userStore.GetByUsername(username)
		if err != nil {
			h.logger.Error("register lookup", "error", err)
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
		errs.Check(existing == nil, "That username is already taken")
	}

	if err := errs.Err(); err != nil {
		data := h.render.page(r, "Create an account")
		data["Username"] = username
		data["Email"] = emailAddr
		data["Role"] = role
		data["Errors"] = validate.Messages(err)
		h.render.Page(w, http.StatusUnprocessableEntity, "account_register.html", data)
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		h.logger.Error("hash password", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	status := model.StatusPending
	if role == model.RoleHolder {
		status = model.StatusActive
	}
	u, err := h.userStore.Create(username, emailAddr, hash, role, status)
	if err != nil {
		h.logger.Error("create user", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	h.logger.Info("account registered", "username", u.Username, "role", u.Role, "status", u.Status)

	if u.CanLogin() {
		redirect(w, r, "/login?registered=1")
		return
	}
	h.render.Page(w, http.StatusOK, "account_pending.html", h.render.page(r, "Awaiting approval"))
}

func (h *AccountHandler) Logout(w http.ResponseWriter, r *http.Request) {
	endSession(w, r, h.sessionStore)
	redirect(w, r, "/login")
}
