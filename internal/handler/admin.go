package handler

import (
	"bytes"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dukerupert/nacp/internal/archive"
	"github.com/dukerupert/nacp/internal/auth"
	"github.com/dukerupert/nacp/internal/catalog"
	"github.com/dukerupert/nacp/internal/email"
	"github.com/dukerupert/nacp/internal/export"
	"github.com/dukerupert/nacp/internal/middleware"
	"github.com/dukerupert/nacp/internal/model"
	"github.com/dukerupert/nacp/internal/report"
	"github.com/dukerupert/nacp/internal/store"
	"github.com/dukerupert/nacp/internal/validate"
	ws "github.com/dukerupert/nacp/internal/websocket"
	"github.com/dukerupert/nacp/internal/wizard"
)

const rowsPerPage = 20

// notices are the flash messages an admin redirect may carry in ?notice=.
var notices = map[string]string{
	"saved":       "Registration saved.",
	"deleted":     "Selected rows deleted.",
	"archived":    "Export archived.",
	"snapshot":    "Database snapshot archived.",
	"approved":    "Account approved.",
	"deactivated": "Account deactivated and signed out.",
	"assigned":    "Agent assignment saved.",
	"land_use":    "Land use record deleted.",
}

// AdminHandler serves the dashboard behind the admin credential map.
type AdminHandler struct {
	db           *sql.DB
	credentials  auth.Credentials
	sessionStore *store.SessionStore
	regStore     *store.RegistrationStore
	tableStore   *store.TableStore
	userStore    *store.UserStore
	holderStore  *store.HolderStore
	landUseStore *store.LandUseStore
	archiver     *archive.Archiver
	emailClient  *email.Client
	hub          *ws.Hub
	catalog      *catalog.Catalog
	render       *Renderer
	logger       *slog.Logger
}

func NewAdminHandler(
	db *sql.DB,
	credentials auth.Credentials,
	archiver *archive.Archiver,
	emailClient *email.Client,
	hub *ws.Hub,
	c *catalog.Catalog,
	render *Renderer,
	logger *slog.Logger,
) *AdminHandler {
	return &AdminHandler{
		db:           db,
		credentials:  credentials,
		sessionStore: store.NewSessionStore(db),
		regStore:     store.NewRegistrationStore(db),
		tableStore:   store.NewTableStore(db),
		userStore:    store.NewUserStore(db),
		holderStore:  store.NewHolderStore(db),
		landUseStore: store.NewLandUseStore(db),
		archiver:     archiver,
		emailClient:  emailClient,
		hub:          hub,
		catalog:      c,
		render:       render,
		logger:       logger,
	}
}

func (h *AdminHandler) page(r *http.Request, title string) map[string]any {
	data := h.render.page(r, title)
	if msg, ok := notices[r.URL.Query().Get("notice")]; ok {
		data["Flash"] = msg
	}
	return data
}

func (h *AdminHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.render.Page(w, http.StatusOK, "admin_login.html", h.render.page(r, "Admin sign in"))
}

// Login checks the credential map and starts an admin session.
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")

	name, err := h.credentials.Check(username, password)
	if err != nil {
		h.logger.Warn("admin login failed", "username", username, "ip", middleware.RealIP(r))
		data := h.render.page(r, "Admin sign in")
		data["Username"] = username
		data["Errors"] = []string{"Invalid username or password"}
		h.render.Page(w, http.StatusUnauthorized, "admin_login.html", data)
		return
	}

	sess, err := h.sessionStore.Create(nil, name, model.RoleAdmin)
	if err != nil {
		h.logger.Error("create admin session", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	setSessionCookie(w, r, sess)
	h.logger.Info("admin login", "username", name)
	redirect(w, r, "/admin")
}

func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	endSession(w, r, h.sessionStore)
	redirect(w, r, "/admin/login")
}

// Dashboard shows registration totals, the category charts and row counts.
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	regs, _, err := h.regStore.List(store.RegistrationFilter{})
	if err != nil {
		h.logger.Error("list registrations", "error", err)
		http.Error(w, "failed to load registrations", http.StatusInternalServerError)
		return
	}

	type tableCount struct {
		Name  string
		Label string
		Rows  int
	}
	var counts []tableCount
	for _, t := range store.AdminTables {
		n, err := h.tableStore.Count(t)
		if err != nil {
			h.logger.Error("count table", "table", t, "error", err)
			continue
		}
		counts = append(counts, tableCount{Name: t, Label: export.Header(t), Rows: n})
	}

	stats, err := h.landUseStore.Stats()
	if err != nil {
		h.logger.Error("land use stats", "error", err)
	}

	data := h.page(r, "Dashboard")
	data["Summary"] = report.Summarize(regs)
	data["Charts"] = report.Registrations(regs, h.catalog)
	data["Tables"] = counts
	data["LandUse"] = stats
	h.render.Page(w, http.StatusOK, "admin_dashboard.html", data)
}

// Registrations lists registration_form newest first, twenty per page.
// HTMX refreshes get only the table rows.
func (h *AdminHandler) Registrations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	island := q.Get("island")
	if island != "" && !h.catalog.Islands.Contains(island) {
		island = ""
	}
	page := max(formInt(q.Get("page"), 1), 1)

	regs, total, err := h.regStore.List(store.RegistrationFilter{
		Island: island,
		Limit:  rowsPerPage,
		Offset: (page - 1) * rowsPerPage,
	})
	if err != nil {
		h.logger.Error("list registrations", "error", err)
		http.Error(w, "failed to load registrations", http.StatusInternalServerError)
		return
	}

	if isHTMX(r) {
		h.render.Partial(w, http.StatusOK, "registration-rows", map[string]any{"Registrations": regs})
		return
	}

	pages := max((total+rowsPerPage-1)/rowsPerPage, 1)
	data := h.page(r, "Registrations")
	data["Registrations"] = regs
	data["Total"] = total
	data["Page"] = page
	data["Pages"] = pages
	data["Island"] = island
	data["Prev"] = pageURL(island, page-1, pages)
	data["Next"] = pageURL(island, page+1, pages)
	h.render.Page(w, http.StatusOK, "admin_registrations.html", data)
}

func pageURL(island string, page, pages int) string {
	if page < 1 || page > pages {
		return ""
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	if island != "" {
		q.Set("island", island)
	}
	return "/admin/registrations?" + q.Encode()
}

func (h *AdminHandler) EditRegistration(w http.ResponseWriter, r *http.Request) {
	reg, ok := h.registration(w, r)
	if !ok {
		return
	}
	data := h.page(r, "Edit registration")
	data["Registration"] = reg
	data["Form"] = model.RegistrationInput{
		FirstName:            reg.FirstName,
		LastName:             reg.LastName,
		Email:                reg.Email,
		Telephone:            reg.Telephone,
		Cell:                 reg.Cell,
		CommunicationMethods: reg.CommunicationMethods,
		InterviewMethods:     reg.InterviewMethods,
		Island:               reg.Island,
		Settlement:           reg.Settlement,
		StreetAddress:        reg.StreetAddress,
	}
	h.render.Page(w, http.StatusOK, "admin_registration_edit.html", data)
}

// UpdateRegistration applies the same rules as the public wizard.
func (h *AdminHandler) UpdateRegistration(w http.ResponseWriter, r *http.Request) {
	reg, ok := h.registration(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}

	in := registrationInput(r)
	if err := wizard.ValidateRegistration(h.catalog, &in); err != nil {
		data := h.page(r, "Edit registration")
		data["Registration"] = reg
		data["Form"] = in
		data["Errors"] = validate.Messages(err)
		h.render.Page(w, http.StatusUnprocessableEntity, "admin_registration_edit.html", data)
		return
	}

	updated, err := h.regStore.Update(reg.ID, in)
	if err != nil {
		h.logger.Error("update registration", "id", reg.ID, "error", err)
		http.Error(w, "failed to update registration", http.StatusInternalServerError)
		return
	}
	h.hub.Broadcast(ws.RegistrationMessage(ws.ActionUpdated, updated.ID, updated.Island))
	redirect(w, r, "/admin/registrations?notice=saved")
}

func (h *AdminHandler) registration(w http.ResponseWriter, r *http.Request) (*model.Registration, bool) {
	id, err := parseIDParam(r)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return nil, false
	}
	reg, err := h.regStore.GetByID(id)
	if err != nil {
		h.logger.Error("get registration", "id", id, "error", err)
		http.Error(w, "failed to load registration", http.StatusInternalServerError)
		return nil, false
	}
	if reg == nil {
		http.Error(w, "registration not found", http.StatusNotFound)
		return nil, false
	}
	return reg, true
}

func (h *AdminHandler) table(w http.ResponseWriter, r *http.Request) (string, bool) {
	table := r.PathValue("table")
	if !h.tableStore.Known(table) {
		http.Error(w, "unknown table", http.StatusNotFound)
		return "", false
	}
	return table, true
}

// Table shows every row of one registry table with readable headers.
func (h *AdminHandler) Table(w http.ResponseWriter, r *http.Request) {
	table, ok := h.table(w, r)
	if !ok {
		return
	}
	dump, err := h.tableStore.Dump(table)
	if err != nil {
		h.logger.Error("dump table", "table", table, "error", err)
		http.Error(w, "failed to load table", http.StatusInternalServerError)
		return
	}

	type row struct {
		ID     string
		Values []string
	}
	rows := make([]row, len(dump.Rows))
	for i, values := range dump.Rows {
		rows[i].Values = make([]string, len(values))
		for j, v := range values {
			rows[i].Values[j] = export.Value(v)
		}
		if len(values) > 0 && dump.Columns[0] == "id" {
			rows[i].ID = rows[i].Values[0]
		}
	}

	data := h.page(r, export.Header(table))
	data["Table"] = table
	data["Tables"] = store.AdminTables
	data["Headers"] = export.Headers(dump.Columns)
	data["Rows"] = rows
	data["Archive"] = h.archiver.Configured()
	h.render.Page(w, http.StatusOK, "admin_table.html", data)
}

// DeleteRows bulk deletes the selected ids. The form must also carry
// confirm=yes.
func (h *AdminHandler) DeleteRows(w http.ResponseWriter, r *http.Request) {
	table, ok := h.table(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}

	var errs validate.Errors
	ids, err := parseIDs(r.PostForm["id"])
	if err != nil {
		errs.Add("%s", err.Error())
	}
	errs.Check(len(r.PostForm["id"]) > 0, "Select at least one row to delete")
	errs.Check(r.PostFormValue("confirm") == "yes", "Tick the confirmation box to delete rows")
	if err := errs.Err(); err != nil {
		h.render.FormError(w, err)
		return
	}

	n, err := h.tableStore.DeleteIDs(table, ids)
	if err != nil {
		h.logger.Error("delete rows", "table", table, "error", err)
		http.Error(w, "failed to delete rows", http.StatusInternalServerError)
		return
	}
	ac, _ := auth.FromContext(r.Context())
	h.logger.Info("rows deleted", "table", table, "count", n, "admin", ac.Username)
	h.hub.Broadcast(ws.RowsDeletedMessage(table, n))

	if isHTMX(r) {
		h.render.Partial(w, http.StatusOK, "delete-result", map[string]any{"Table": table, "Deleted": n})
		return
	}
	redirect(w, r, "/admin/tables/"+table+"?notice=deleted")
}

func (h *AdminHandler) exportTable(table string, f export.Format) ([]byte, error) {
	dump, err := h.tableStore.Dump(table)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := export.Write(&buf, f, dump); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Export downloads a table as CSV or Excel.
func (h *AdminHandler) Export(w http.ResponseWriter, r *http.Request) {
	table, ok := h.table(w, r)
	if !ok {
		return
	}
	f, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	body, err := h.exportTable(table, f)
	if err != nil {
		h.logger.Error("export table", "table", table, "error", err)
		http.Error(w, "failed to export table", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+f.Filename(table)+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.Write(body)
}

// Archive uploads a table export to object storage.
func (h *AdminHandler) Archive(w http.ResponseWriter, r *http.Request) {
	table, ok := h.table(w, r)
	if !ok {
		return
	}
	if !h.archiver.Configured() {
		http.Error(w, "archive storage is not configured", http.StatusServiceUnavailable)
		return
	}
	f, err := export.ParseFormat(r.FormValue("format"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	body, err := h.exportTable(table, f)
	if err != nil {
		h.logger.Error("export table", "table", table, "error", err)
		http.Error(w, "failed to export table", http.StatusInternalServerError)
		return
	}
	if _, err := h.archiver.Upload(r.Context(), f.Filename(table), f.ContentType(), body); err != nil {
		h.logger.Error("archive export", "table", table, "error", err)
		http.Error(w, "failed to archive export", http.StatusBadGateway)
		return
	}
	redirect(w, r, "/admin/archives?notice=archived")
}

func (h *AdminHandler) Archives(w http.ResponseWriter, r *http.Request) {
	data := h.page(r, "Archive")
	data["Configured"] = h.archiver.Configured()
	if h.archiver.Configured() {
		objects, err := h.archiver.List(r.Context())
		if err != nil {
			h.logger.Error("list archive", "error", err)
			data["Errors"] = []string{"The archive could not be listed right now."}
		}
		data["Objects"] = objects
	}
	h.render.Page(w, http.StatusOK, "admin_archives.html", data)
}

func (h *AdminHandler) DownloadArchive(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		http.Error(w, "key is required", http.StatusBadRequest)
		return
	}
	if !h.archiver.Configured() {
		http.Error(w, "archive storage is not configured", http.StatusServiceUnavailable)
		return
	}
	body, err := h.archiver.Download(r.Context(), key)
	if err != nil {
		h.logger.Error("download archive", "key", key, "error", err)
		http.Error(w, "archived file not found", http.StatusNotFound)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="`+archive.Object{Key: key}.Name()+`"`)
	io.Copy(w, body)
}

func (h *AdminHandler) DeleteArchive(w http.ResponseWriter, r *http.Request) {
	key := r.PostFormValue("key")
	if key == "" {
		http.Error(w, "key is required", http.StatusBadRequest)
		return
	}
	if !h.archiver.Configured() {
		http.Error(w, "archive storage is not configured", http.StatusServiceUnavailable)
		return
	}
	if err := h.archiver.Delete(r.Context(), key); err != nil {
		h.logger.Error("delete archive", "key", key, "error", err)
		http.Error(w, "failed to delete archived file", http.StatusBadGateway)
		return
	}
	h.logger.Info("archive deleted", "key", key)
	redirect(w, r, "/admin/archives")
}

// Snapshot archives a copy of the whole database.
func (h *AdminHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	if !h.archiver.Configured() {
		http.Error(w, "archive storage is not configured", http.StatusServiceUnavailable)
		return
	}
	if _, err := h.archiver.Snapshot(r.Context(), h.db); err != nil {
		h.logger.Error("database snapshot", "error", err)
		http.Error(w, "failed to snapshot database", http.StatusBadGateway)
		return
	}
	redirect(w, r, "/admin/archives?notice=snapshot")
}

// Users lists accounts and holders for approval and agent assignment.
func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	users, err := h.userStore.List("")
	if err != nil {
		h.logger.Error("list users", "error", err)
		http.Error(w, "failed to load users", http.StatusInternalServerError)
		return
	}
	holders, err := h.holderStore.List()
	if err != nil {
		h.logger.Error("list holders", "error", err)
		http.Error(w, "failed to load holders", http.StatusInternalServerError)
		return
	}

	var agents []model.User
	for _, u := range users {
		if u.Role == model.RoleAgent && u.CanLogin() {
			agents = append(agents, u)
		}
	}

	data := h.page(r, "Users")
	data["Users"] = users
	data["Holders"] = holders
	data["Agents"] = agents
	h.render.Page(w, http.StatusOK, "admin_users.html", data)
}

// ApproveUser activates a pending account and tells its owner.
func (h *AdminHandler) ApproveUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	u, err := h.userStore.SetStatus(id, model.StatusApproved)
	if err != nil {
		h.logger.Error("approve user", "id", id, "error", err)
		http.Error(w, "failed to approve user", http.StatusInternalServerError)
		return
	}
	if u == nil {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}
	h.logger.Info("user approved", "username", u.Username, "role", u.Role)

	if h.emailClient != nil && h.emailClient.Configured() && u.Email != "" {
		if err := h.emailClient.SendAccountApproved(r.Context(), *u); err != nil {
			h.logger.Error("send approval email", "user_id", u.ID, "error", err)
		}
	}
	redirect(w, r, "/admin/users?notice=approved")
}

// DeactivateUser returns an account to pending and ends its sessions.
func (h *AdminHandler) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	u, err := h.userStore.SetStatus(id, model.StatusPending)
	if err != nil {
		h.logger.Error("deactivate user", "id", id, "error", err)
		http.Error(w, "failed to deactivate user", http.StatusInternalServerError)
		return
	}
	if u == nil {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}
	if err := h.sessionStore.DeleteByUserID(u.ID); err != nil {
		h.logger.Error("delete user sessions", "user_id", u.ID, "error", err)
		http.Error(w, "failed to sign out user", http.StatusInternalServerError)
		return
	}
	h.logger.Info("user deactivated", "username", u.Username, "role", u.Role)
	redirect(w, r, "/admin/users?notice=deactivated")
}

var errNotAgent = errors.New("not an approved agent")

// AssignAgent links a holder to an approved agent; an empty agent_id
// unassigns.
func (h *AdminHandler) AssignAgent(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var agentID *int64
	if v := strings.TrimSpace(r.FormValue("agent_id")); v != "" {
		aid, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			http.Error(w, "invalid agent id", http.StatusBadRequest)
			return
		}
		if err := h.checkAgent(aid); err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		agentID = &aid
	}

	holder, err := h.holderStore.AssignAgent(id, agentID)
	if err != nil {
		h.logger.Error("assign agent", "holder_id", id, "error", err)
		http.Error(w, "failed to assign agent", http.StatusInternalServerError)
		return
	}
	if holder == nil {
		http.Error(w, "holder not found", http.StatusNotFound)
		return
	}
	redirect(w, r, "/admin/users?notice=assigned")
}

func (h *AdminHandler) checkAgent(id int64) error {
	u, err := h.userStore.GetByID(id)
	if err != nil {
		return err
	}
	if u == nil || u.Role != model.RoleAgent || !u.CanLogin() {
		return errNotAgent
	}
	return nil
}

// LandUse lists land use records filtered by id or location, with summary
// statistics.
func (h *AdminHandler) LandUse(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.LandUseFilter{Location: strings.TrimSpace(q.Get("location"))}
	if id, err := strconv.ParseInt(q.Get("id"), 10, 64); err == nil {
		filter.ID = id
	}

	records, err := h.landUseStore.List(filter)
	if err != nil {
		h.logger.Error("list land use", "error", err)
		http.Error(w, "failed to load land use", http.StatusInternalServerError)
		return
	}
	stats, err := h.landUseStore.Stats()
	if err != nil {
		h.logger.Error("land use stats", "error", err)
	}

	data := h.page(r, "Land use")
	data["Records"] = records
	data["Stats"] = stats
	data["Filter"] = filter
	h.render.Page(w, http.StatusOK, "admin_land_use.html", data)
}

func (h *AdminHandler) DeleteLandUse(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	if err := h.landUseStore.Delete(id); err != nil {
		h.logger.Error("delete land use", "id", id, "error", err)
		http.Error(w, "failed to delete land use record", http.StatusInternalServerError)
		return
	}
	h.logger.Info("land use deleted", "id", id)
	h.hub.Broadcast(ws.RowsDeletedMessage("land_use", 1))
	redirect(w, r, "/admin/land-use?notice=land_use")
}
