package v1

import (
	"net/http"
	"strings"

	"github.com/divyadhiman22/MyNotes/internal/delivery/http/middleware"
	"github.com/divyadhiman22/MyNotes/internal/delivery/http/response"
	"github.com/divyadhiman22/MyNotes/internal/domain"

	"github.com/gin-gonic/gin"
)

// PageHandler serves the view model of each route of the app. Redirects are
// applied by the session gate before these run.
type PageHandler struct {
	pageUC domain.PageUsecase
}

// NewPageHandler registers every page on pages, which must be behind the
// page-mode session gate.
func NewPageHandler(pages gin.IRoutes, pageUC domain.PageUsecase) {
	handler := &PageHandler{pageUC: pageUC}

	pages.GET("/", handler.Landing)
	pages.GET("/services", handler.Services)
	pages.GET("/contact", handler.Contact)
	pages.GET("/login", handler.Login)
	pages.GET("/signup", handler.SignUp)

	pages.GET("/home", handler.Home)
	pages.GET("/add", handler.Add)
	pages.GET("/view", handler.View)
	pages.GET("/edit", handler.Edit)
}

type NotePageData struct {
	Notes *domain.NoteSnapshot `json:"notes,omitempty"`
	Note  *domain.Note         `json:"note,omitempty"`
	Form  []domain.FormField   `json:"form,omitempty"`
}

func (h *PageHandler) render(c *gin.Context, page, title string, data interface{}) {
	decision := middleware.DecisionFrom(c)
	response.Success(c, http.StatusOK, title, domain.PageView{
		Page:    page,
		Title:   title,
		Nav:     h.pageUC.Navigation(decision.ShowAuthNav),
		Session: middleware.SessionStateFrom(c),
		Data:    data,
	})
}

func (h *PageHandler) Landing(c *gin.Context) {
	h.render(c, "landing", "MyNotes", gin.H{
		"services": h.pageUC.Services(),
		"contact":  h.pageUC.ContactForm(),
	})
}

func (h *PageHandler) Services(c *gin.Context) {
	h.render(c, "services", "Our Services", h.pageUC.Services())
}

func (h *PageHandler) Contact(c *gin.Context) {
	h.render(c, "contact", "Contact Us", h.pageUC.ContactForm())
}

func (h *PageHandler) Login(c *gin.Context) {
	h.render(c, "login", "Sign In", gin.H{
		"form":  h.pageUC.LoginForm(),
		"error": c.Query("error"),
	})
}

func (h *PageHandler) SignUp(c *gin.Context) {
	h.render(c, "signup", "Sign Up", gin.H{"form": h.pageUC.SignUpForm()})
}

// Home lists the notes, filtered when q is set.
func (h *PageHandler) Home(c *gin.Context) {
	repo, userID, ok := notesContext(c)
	if !ok {
		return
	}

	var (
		snap domain.NoteSnapshot
		err  error
	)
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		snap, err = repo.SearchNotes(c.Request.Context(), userID, q)
	} else {
		snap, err = repo.FetchNotes(c.Request.Context(), userID)
	}
	if err != nil {
		c.Error(err)
		return
	}
	h.render(c, "home", "My Notes", NotePageData{Notes: &snap})
}

func (h *PageHandler) Add(c *gin.Context) {
	h.render(c, "add", "Add Note", NotePageData{Form: h.pageUC.NoteForm(domain.Note{})})
}

// View shows the note given by id, or the current selection.
func (h *PageHandler) View(c *gin.Context) {
	data, ok := h.selected(c)
	if !ok {
		return
	}
	h.render(c, "view", "View Note", data)
}

// Edit prefills the form from the note given by id, or the current
// selection. With neither, the form is blank.
func (h *PageHandler) Edit(c *gin.Context) {
	data, ok := h.selected(c)
	if !ok {
		return
	}
	defaults := domain.Note{}
	if data.Note != nil {
		defaults = *data.Note
	}
	data.Form = h.pageUC.NoteForm(defaults)
	h.render(c, "edit", "Edit Note", data)
}

func (h *PageHandler) selected(c *gin.Context) (NotePageData, bool) {
	repo, userID, ok := notesContext(c)
	if !ok {
		return NotePageData{}, false
	}

	if id := c.Query("id"); id != "" {
		if _, err := selectNote(c, repo, userID, id); err != nil {
			c.Error(err)
			return NotePageData{}, false
		}
	} else if _, err := ensureLoaded(c, repo, userID); err != nil {
		c.Error(err)
		return NotePageData{}, false
	}

	snap := repo.Snapshot()
	return NotePageData{Notes: &snap, Note: snap.Selected}, true
}
