package web

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hpungsan/repovault/internal/errors"
	"github.com/hpungsan/repovault/internal/gateway"
	"github.com/hpungsan/repovault/internal/ops"
	"github.com/hpungsan/repovault/internal/vault"
)

// maxFormBytes bounds add and clear form bodies.
const maxFormBytes = 64 << 10

// Handlers contains HTTP route handlers for the web UI and JSON API.
type Handlers struct {
	store    *vault.Store
	gw       gateway.Gateway
	renderer *Renderer
	now      func() time.Time
}

// HandleList handles GET /bookmarks, the popup page.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	input := listInput(r)
	result, err := ops.List(h.store, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	data := ListPageData{
		PageData:   h.pageData("Bookmarks"),
		Items:      result.Items,
		Pagination: result.Pagination,
		Categories: ops.Categories(h.store).Categories,
		Search:     input.Search,
		Category:   input.Category,
	}

	// Live search swaps only the list.
	if r.Header.Get("HX-Target") == "bookmark-list" {
		h.renderer.renderBlock(w, http.StatusOK, "list", "bookmark-list", data)
		return
	}

	h.renderer.renderPage(w, r, "list", data)
}

// HandleAdd handles POST /bookmarks.
func (h *Handlers) HandleAdd(w http.ResponseWriter, r *http.Request) {
	var input ops.AddInput
	if isJSONBody(r) {
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFormBytes)).Decode(&input); err != nil {
			h.renderer.renderError(w, r, errors.NewInvalidInput("invalid JSON body"))
			return
		}
	} else {
		r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
		if err := r.ParseForm(); err != nil {
			h.renderer.renderError(w, r, errors.NewInvalidInput("invalid form data"))
			return
		}
		input = ops.AddInput{
			URL:      r.PostFormValue("url"),
			Category: r.PostFormValue("category"),
			Notes:    r.PostFormValue("notes"),
		}
	}

	result, err := ops.Add(r.Context(), h.store, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if isHTMX(r) {
		w.Header().Set("HX-Redirect", "/bookmarks")
		w.WriteHeader(http.StatusCreated)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusCreated, result)
		return
	}

	http.Redirect(w, r, "/bookmarks", http.StatusSeeOther)
}

// HandleDelete handles DELETE /bookmarks/{id} and POST /bookmarks/{id}/delete.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := ops.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	result, err := ops.Delete(r.Context(), h.store, ops.DeleteInput{ID: id})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if isHTMX(r) {
		// Empty body removes the swapped element.
		w.WriteHeader(http.StatusOK)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	http.Redirect(w, r, "/bookmarks", http.StatusSeeOther)
}

// HandleClear handles POST /bookmarks/clear.
func (h *Handlers) HandleClear(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidInput("invalid form data"))
		return
	}

	result, err := ops.Clear(r.Context(), h.store, ops.ClearInput{
		Confirm: r.FormValue("confirm") == "true",
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`<div class="clear-result">` +
			template.HTMLEscapeString(fmt.Sprintf("Removed %d bookmarks", result.Removed)) + `</div>`))
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	http.Redirect(w, r, "/bookmarks", http.StatusSeeOther)
}

// HandleExport handles GET /bookmarks/export as a file download.
func (h *Handlers) HandleExport(w http.ResponseWriter, r *http.Request) {
	data, err := h.store.Export()
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	filename := ops.BackupFilename(h.now())
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// HandleImport handles POST /bookmarks/import with a multipart "file" field
// or a raw JSON body.
func (h *Handlers) HandleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, ops.MaxImportBytes+(1<<20))

	var src io.Reader = r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			h.renderer.renderError(w, r, errors.NewInvalidInput("file is required"))
			return
		}
		defer file.Close()
		src = file
	}

	result, err := ops.ImportReader(r.Context(), h.store, src)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if isHTMX(r) {
		w.Header().Set("HX-Redirect", "/bookmarks")
		w.WriteHeader(http.StatusOK)
		return
	}

	if wantsJSON(r) || isJSONBody(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	http.Redirect(w, r, "/bookmarks", http.StatusSeeOther)
}

// HandleAPIList handles GET /api/bookmarks.
func (h *Handlers) HandleAPIList(w http.ResponseWriter, r *http.Request) {
	result, err := ops.List(h.store, listInput(r))
	if err != nil {
		h.renderAPIError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleAPICategories handles GET /api/categories.
func (h *Handlers) HandleAPICategories(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, http.StatusOK, ops.Categories(h.store))
}

// HandleAPIMessage handles POST /api/messages, the badge signal channel.
func (h *Handlers) HandleAPIMessage(w http.ResponseWriter, r *http.Request) {
	var msg ops.Message
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFormBytes)).Decode(&msg); err != nil {
		h.renderAPIError(w, errors.NewInvalidInput("invalid JSON body"))
		return
	}

	result, err := ops.HandleMessage(r.Context(), h.gw, h.store.CollectionName(), msg)
	if err != nil {
		h.renderAPIError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

func (h *Handlers) renderAPIError(w http.ResponseWriter, err error) {
	renderJSONError(w, asVaultError(err))
}

func (h *Handlers) pageData(title string) PageData {
	return PageData{
		Title:   title,
		Version: h.renderer.version,
		Total:   h.store.Len(),
	}
}

// listInput reads search, category and pagination from the query string.
func listInput(r *http.Request) ops.ListInput {
	q := r.URL.Query()
	search := q.Get("q")
	if search == "" {
		search = q.Get("search")
	}
	return ops.ListInput{
		Search:   search,
		Category: q.Get("category"),
		Limit:    parseIntParam(r, "limit", ops.DefaultListLimit),
		Offset:   parseIntParam(r, "offset", 0),
	}
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

func isJSONBody(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}
