// Package web serves the browser front end: HTML pages rendered from the
// shared client state, with an auth guard in front of every catalog page.
package web

import (
	"embed"
	"html/template"
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/adesaini/sweetshop-client/internal/catalog"
	"github.com/adesaini/sweetshop-client/internal/model"
	"github.com/adesaini/sweetshop-client/internal/session"
	"github.com/adesaini/sweetshop-client/internal/view"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Server wires the session store, catalog and view controller into a gin
// router.
type Server struct {
	engine   *gin.Engine
	store    *session.Store
	catalog  *catalog.Catalog
	ctrl     *view.Controller
	loadOnce sync.Once
	log      *zap.Logger
}

// NewServer builds the router and parses the embedded templates.
func NewServer(store *session.Store, cat *catalog.Catalog, ctrl *view.Controller, log *zap.Logger) (*Server, error) {
	if log == nil {
		log = zap.NewNop()
	}
	tmpl, err := template.ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, err
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log))
	r.SetHTMLTemplate(tmpl)

	s := &Server{engine: r, store: store, catalog: cat, ctrl: ctrl, log: log}
	s.registerRoutes()
	return s, nil
}

// Engine exposes the router for serving and for tests.
func (s *Server) Engine() *gin.Engine { return s.engine }

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		log.Info("http",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
		)
	}
}

func (s *Server) registerRoutes() {
	s.engine.GET("/", func(c *gin.Context) { c.Redirect(http.StatusFound, "/dashboard") })
	s.engine.GET("/login", s.loginForm)
	s.engine.POST("/login", s.login)
	s.engine.GET("/register", s.registerForm)
	s.engine.POST("/register", s.register)
	s.engine.POST("/logout", s.logout)

	guarded := s.engine.Group("/", s.requireSession())
	{
		guarded.GET("/dashboard", s.dashboard)
		guarded.GET("/sweets", s.sweets)
		guarded.POST("/sweets", s.createSweet)
		guarded.POST("/sweets/:id/update", s.updateSweet)
		guarded.POST("/sweets/:id/delete", s.deleteSweet)
		guarded.POST("/sweets/:id/restock", s.restockSweet)
		guarded.POST("/sweets/:id/purchase", s.purchaseSweet)
		guarded.POST("/search", s.search)
		guarded.POST("/sort/:key", s.sortKey)
		guarded.POST("/view/:mode", s.viewMode)
		guarded.POST("/dismiss", s.dismiss)
	}
}

// requireSession redirects unauthenticated visitors to the login page.
// There is no role-based route restriction; pages gate controls themselves.
func (s *Server) requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := s.store.Current(); err != nil {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// ---- auth pages ----

type loginData struct {
	Email      string
	Error      string
	Registered bool
}

func (s *Server) loginForm(c *gin.Context) {
	c.HTML(http.StatusOK, "login.tmpl", loginData{Registered: c.Query("registered") == "1"})
}

func (s *Server) login(c *gin.Context) {
	email := c.PostForm("email")
	password := c.PostForm("password")
	if _, err := s.store.Login(c.Request.Context(), email, password); err != nil {
		c.HTML(http.StatusUnauthorized, "login.tmpl", loginData{Email: email, Error: "Login failed: " + err.Error()})
		return
	}
	c.Redirect(http.StatusFound, "/dashboard")
}

type registerData struct {
	Username string
	Email    string
	Role     string
	Error    string
}

func (s *Server) registerForm(c *gin.Context) {
	c.HTML(http.StatusOK, "register.tmpl", registerData{Role: string(model.RoleUser)})
}

func (s *Server) register(c *gin.Context) {
	data := registerData{
		Username: c.PostForm("username"),
		Email:    c.PostForm("email"),
		Role:     c.PostForm("role"),
	}
	if data.Role == "" {
		data.Role = string(model.RoleUser)
	}
	password := c.PostForm("password")
	if data.Username == "" || data.Email == "" || password == "" {
		data.Error = "All fields are required"
		c.HTML(http.StatusBadRequest, "register.tmpl", data)
		return
	}
	err := s.store.Register(c.Request.Context(), data.Username, data.Email, password, model.Role(data.Role))
	if err != nil {
		data.Error = "Registration failed: " + err.Error()
		c.HTML(http.StatusBadRequest, "register.tmpl", data)
		return
	}
	c.Redirect(http.StatusFound, "/login?registered=1")
}

func (s *Server) logout(c *gin.Context) {
	s.store.Logout()
	c.Redirect(http.StatusFound, "/login")
}

// ---- catalog pages ----

type sweetRow struct {
	model.Sweet
	CanEdit     bool
	CanDelete   bool
	CanRestock  bool
	CanPurchase bool
	LowStock    bool
}

type sortButton struct {
	Key    string
	Active bool
	Desc   bool
}

type sweetsData struct {
	Session model.Session
	Rows    []sweetRow
	Sort    []sortButton
	Mode    model.ViewMode
	Notice  *view.Notice
	Loading bool
	Err     string
}

func (s *Server) sweets(c *gin.Context) {
	s.loadOnce.Do(func() { _ = s.catalog.LoadAll(c.Request.Context()) })
	s.renderSweets(c)
}

func (s *Server) renderSweets(c *gin.Context) {
	sess, _ := s.store.Current()

	items := s.ctrl.Visible()
	rows := make([]sweetRow, 0, len(items))
	for _, it := range items {
		row := sweetRow{Sweet: it, LowStock: it.Quantity < 10}
		for _, a := range view.AllowedActions(sess.Role, it) {
			switch a {
			case view.ActionEdit:
				row.CanEdit = true
			case view.ActionDelete:
				row.CanDelete = true
			case view.ActionRestock:
				row.CanRestock = true
			case view.ActionPurchase:
				row.CanPurchase = true
			}
		}
		rows = append(rows, row)
	}

	spec := s.ctrl.Sort()
	keys := []model.SortKey{model.SortByName, model.SortByPrice, model.SortByQuantity, model.SortByCategory}
	buttons := make([]sortButton, 0, len(keys))
	for _, k := range keys {
		buttons = append(buttons, sortButton{Key: string(k), Active: spec.Key == k, Desc: spec.Desc})
	}

	c.HTML(http.StatusOK, "sweets.tmpl", sweetsData{
		Session: sess,
		Rows:    rows,
		Sort:    buttons,
		Mode:    s.ctrl.Mode(),
		Notice:  s.ctrl.Notice(),
		Loading: s.catalog.Loading(),
		Err:     s.catalog.Err(),
	})
}

type dashboardData struct {
	Session model.Session
	Stats   model.Stats
	Recent  []model.Sweet
	Err     string
}

func (s *Server) dashboard(c *gin.Context) {
	_ = s.catalog.LoadAll(c.Request.Context())
	s.loadOnce.Do(func() {})

	sess, _ := s.store.Current()
	items := s.catalog.Items()
	recent := items
	if len(recent) > 3 {
		recent = recent[:3]
	}
	c.HTML(http.StatusOK, "dashboard.tmpl", dashboardData{
		Session: sess,
		Stats:   view.ComputeStats(items),
		Recent:  recent,
		Err:     s.catalog.Err(),
	})
}

// ---- actions ----

func (s *Server) search(c *gin.Context) {
	var f model.SearchFilter
	f.Name = c.PostForm("name")
	f.Category = c.PostForm("category")
	if v := c.PostForm("minPrice"); v != "" {
		if x, err := strconv.ParseFloat(v, 64); err == nil {
			f.MinPrice = &x
		}
	}
	if v := c.PostForm("maxPrice"); v != "" {
		if x, err := strconv.ParseFloat(v, 64); err == nil {
			f.MaxPrice = &x
		}
	}
	// an empty search restores the full collection
	if f.IsEmpty() {
		_ = s.catalog.LoadAll(c.Request.Context())
	} else {
		_ = s.catalog.Search(c.Request.Context(), f)
	}
	s.loadOnce.Do(func() {})
	c.Redirect(http.StatusFound, "/sweets")
}

func (s *Server) sortKey(c *gin.Context) {
	s.ctrl.ClickSort(model.SortKey(c.Param("key")))
	c.Redirect(http.StatusFound, "/sweets")
}

func (s *Server) viewMode(c *gin.Context) {
	s.ctrl.SetViewMode(model.ViewMode(c.Param("mode")))
	c.Redirect(http.StatusFound, "/sweets")
}

func (s *Server) dismiss(c *gin.Context) {
	s.ctrl.Dismiss()
	c.Redirect(http.StatusFound, "/sweets")
}

func (s *Server) createSweet(c *gin.Context) {
	in, ok := sweetInputFromForm(c)
	if !ok {
		return
	}
	_ = s.ctrl.Create(c.Request.Context(), in)
	c.Redirect(http.StatusFound, "/sweets")
}

func (s *Server) updateSweet(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.String(http.StatusBadRequest, "invalid id")
		return
	}
	in, ok := sweetInputFromForm(c)
	if !ok {
		return
	}
	_ = s.ctrl.Update(c.Request.Context(), id, in)
	c.Redirect(http.StatusFound, "/sweets")
}

func (s *Server) deleteSweet(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.String(http.StatusBadRequest, "invalid id")
		return
	}
	_ = s.ctrl.Delete(c.Request.Context(), id)
	c.Redirect(http.StatusFound, "/sweets")
}

func (s *Server) restockSweet(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.String(http.StatusBadRequest, "invalid id")
		return
	}
	_ = s.ctrl.Restock(c.Request.Context(), id, optionalQty(c))
	c.Redirect(http.StatusFound, "/sweets")
}

func (s *Server) purchaseSweet(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.String(http.StatusBadRequest, "invalid id")
		return
	}
	_ = s.ctrl.Purchase(c.Request.Context(), id, optionalQty(c))
	c.Redirect(http.StatusFound, "/sweets")
}

// optionalQty reads the qty field; 0 lets the controller apply its default.
func optionalQty(c *gin.Context) int64 {
	v := c.PostForm("qty")
	if v == "" {
		return 0
	}
	qty, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0
	}
	return qty
}

func sweetInputFromForm(c *gin.Context) (model.SweetInput, bool) {
	price, err := strconv.ParseFloat(c.PostForm("price"), 64)
	if err != nil {
		c.String(http.StatusBadRequest, "invalid price")
		return model.SweetInput{}, false
	}
	qty, err := strconv.ParseInt(c.PostForm("quantity"), 10, 64)
	if err != nil {
		c.String(http.StatusBadRequest, "invalid quantity")
		return model.SweetInput{}, false
	}
	return model.SweetInput{
		Name:     c.PostForm("name"),
		Category: c.PostForm("category"),
		Price:    price,
		Quantity: qty,
	}, true
}
