package v1

import (
	"net/http"
	"strings"

	"github.com/divyadhiman22/MyNotes/internal/delivery/http/middleware"
	"github.com/divyadhiman22/MyNotes/internal/delivery/http/response"
	"github.com/divyadhiman22/MyNotes/internal/domain"
	"github.com/divyadhiman22/MyNotes/pkg/apperror"
	"github.com/divyadhiman22/MyNotes/pkg/validation"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type NoteHandler struct {
	validate *validator.Validate
}

// NewNoteHandler registers the note routes. Every route expects the session
// gate to have attached a workspace.
func NewNoteHandler(protected *gin.RouterGroup, validate *validator.Validate) {
	handler := &NoteHandler{validate: validate}

	notes := protected.Group("/notes")
	{
		notes.GET("", handler.List)
		notes.GET("/search", handler.Search)
		notes.POST("", handler.Create)
		notes.PUT("/selected", handler.Select)
		notes.DELETE("/selected", handler.ClearSelection)
		notes.PATCH("/:id", handler.Update)
		notes.DELETE("/:id", handler.Delete)
	}
	protected.GET("/categories", handler.Categories)
}

type CreateNoteRequest struct {
	Title    string `json:"title" validate:"required,not_blank,max=200"`
	Content  string `json:"content" validate:"required,not_blank,max=20000"`
	Category string `json:"category" validate:"max=50"`
	Date     string `json:"date" validate:"required,calendar_date"`
}

type UpdateNoteRequest struct {
	Title    *string `json:"title" validate:"omitempty,not_blank,max=200"`
	Content  *string `json:"content" validate:"omitempty,not_blank,max=20000"`
	Category *string `json:"category" validate:"omitempty,max=50"`
	Date     *string `json:"date" validate:"omitempty,calendar_date"`
}

type SelectNoteRequest struct {
	ID string `json:"id" validate:"required"`
}

// notesContext returns the session's note repository and user id.
func notesContext(c *gin.Context) (domain.NoteRepository, string, bool) {
	ws := middleware.WorkspaceFrom(c)
	if ws == nil {
		c.Error(apperror.Unauthorized("Please sign in to continue"))
		return nil, "", false
	}
	return ws.Notes, c.GetString(string(domain.KeyUserID)), true
}

func (h *NoteHandler) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.Error(apperror.BadRequest("Invalid request body"))
		return false
	}
	if err := h.validate.Struct(req); err != nil {
		c.Error(apperror.BadRequest(strings.Join(validation.FormatValidationErrors(err), "; ")))
		return false
	}
	return true
}

// List godoc
// @Summary      List notes
// @Description  Fetch the signed-in user's notes and category summary. Clears any active search.
// @Tags         notes
// @Produce      json
// @Success      200  {object}  response.Response{data=domain.NoteSnapshot}
// @Failure      401  {object}  response.Response
// @Failure      503  {object}  response.Response
// @Security     BearerAuth
// @Router       /notes [get]
func (h *NoteHandler) List(c *gin.Context) {
	repo, userID, ok := notesContext(c)
	if !ok {
		return
	}
	snap, err := repo.FetchNotes(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Notes retrieved", snap)
}

// Search godoc
// @Summary      Search notes
// @Description  Case-insensitive match on title, content and category. An empty query matches every note.
// @Tags         notes
// @Produce      json
// @Param        q    query     string  false  "Search text"
// @Success      200  {object}  response.Response{data=domain.NoteSnapshot}
// @Security     BearerAuth
// @Router       /notes/search [get]
func (h *NoteHandler) Search(c *gin.Context) {
	repo, userID, ok := notesContext(c)
	if !ok {
		return
	}
	snap, err := repo.SearchNotes(c.Request.Context(), userID, c.Query("q"))
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Search results", snap)
}

// Create godoc
// @Summary      Add a note
// @Tags         notes
// @Accept       json
// @Produce      json
// @Param        note  body      CreateNoteRequest  true  "Note"
// @Success      201   {object}  response.Response{data=domain.NoteSnapshot}
// @Failure      400   {object}  response.Response
// @Security     BearerAuth
// @Router       /notes [post]
func (h *NoteHandler) Create(c *gin.Context) {
	repo, userID, ok := notesContext(c)
	if !ok {
		return
	}
	var req CreateNoteRequest
	if !h.bind(c, &req) {
		return
	}

	snap, err := repo.AddNote(c.Request.Context(), userID, domain.Note{
		Title:    strings.TrimSpace(req.Title),
		Content:  req.Content,
		Category: strings.TrimSpace(req.Category),
		Date:     req.Date,
	})
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusCreated, "Note added", snap)
}

// Update godoc
// @Summary      Update a note
// @Description  Partial update; omitted fields are left unchanged. Clears the selected note.
// @Tags         notes
// @Accept       json
// @Produce      json
// @Param        id    path      string             true  "Note ID"
// @Param        note  body      UpdateNoteRequest  true  "Fields to change"
// @Success      200   {object}  response.Response{data=domain.NoteSnapshot}
// @Failure      404   {object}  response.Response
// @Security     BearerAuth
// @Router       /notes/{id} [patch]
func (h *NoteHandler) Update(c *gin.Context) {
	repo, userID, ok := notesContext(c)
	if !ok {
		return
	}
	var req UpdateNoteRequest
	if !h.bind(c, &req) {
		return
	}

	patch := domain.NotePatch{
		Title:    trimmed(req.Title),
		Content:  req.Content,
		Category: trimmed(req.Category),
		Date:     req.Date,
	}
	snap, err := repo.UpdateNote(c.Request.Context(), userID, c.Param("id"), patch)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Note updated", snap)
}

// Delete godoc
// @Summary      Delete a note
// @Tags         notes
// @Produce      json
// @Param        id   path      string  true  "Note ID"
// @Success      200  {object}  response.Response{data=domain.NoteSnapshot}
// @Failure      404  {object}  response.Response
// @Security     BearerAuth
// @Router       /notes/{id} [delete]
func (h *NoteHandler) Delete(c *gin.Context) {
	repo, userID, ok := notesContext(c)
	if !ok {
		return
	}
	snap, err := repo.DeleteNote(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Note deleted", snap)
}

// Select godoc
// @Summary      Select a note
// @Description  Marks a note of the current set as selected for viewing or editing.
// @Tags         notes
// @Accept       json
// @Produce      json
// @Param        body  body      SelectNoteRequest  true  "Note to select"
// @Success      200   {object}  response.Response{data=domain.NoteSnapshot}
// @Failure      404   {object}  response.Response
// @Security     BearerAuth
// @Router       /notes/selected [put]
func (h *NoteHandler) Select(c *gin.Context) {
	repo, userID, ok := notesContext(c)
	if !ok {
		return
	}
	var req SelectNoteRequest
	if !h.bind(c, &req) {
		return
	}
	if _, err := selectNote(c, repo, userID, req.ID); err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Note selected", repo.Snapshot())
}

// ClearSelection godoc
// @Summary      Clear the selected note
// @Tags         notes
// @Produce      json
// @Success      200  {object}  response.Response{data=domain.NoteSnapshot}
// @Security     BearerAuth
// @Router       /notes/selected [delete]
func (h *NoteHandler) ClearSelection(c *gin.Context) {
	repo, _, ok := notesContext(c)
	if !ok {
		return
	}
	repo.SetSelectedNote(nil)
	response.Success(c, http.StatusOK, "Selection cleared", repo.Snapshot())
}

// Categories godoc
// @Summary      Category summary
// @Description  Distinct categories with note counts, in order of first appearance.
// @Tags         notes
// @Produce      json
// @Success      200  {object}  response.Response{data=[]domain.CategorySummary}
// @Security     BearerAuth
// @Router       /categories [get]
func (h *NoteHandler) Categories(c *gin.Context) {
	repo, userID, ok := notesContext(c)
	if !ok {
		return
	}
	snap, err := ensureLoaded(c, repo, userID)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Categories retrieved", snap.Categories)
}

// ensureLoaded fetches once if the workspace has not loaded notes yet.
func ensureLoaded(c *gin.Context, repo domain.NoteRepository, userID string) (domain.NoteSnapshot, error) {
	snap := repo.Snapshot()
	if snap.Loaded {
		return snap, nil
	}
	return repo.FetchNotes(c.Request.Context(), userID)
}

// selectNote looks the id up in the loaded set and marks it selected.
func selectNote(c *gin.Context, repo domain.NoteRepository, userID, id string) (domain.Note, error) {
	if _, err := ensureLoaded(c, repo, userID); err != nil {
		return domain.Note{}, err
	}
	note, found := repo.FindNote(id)
	if !found {
		return domain.Note{}, apperror.NotFound("Note not found")
	}
	repo.SetSelectedNote(&note)
	return note, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
