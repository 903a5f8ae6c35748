// Package api serves the workbench over HTTP: evaluation, the object
// tree, model queries, part lists and document storage.
package api

import (
	"bytes"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/chazu/pypeline/pkg/doc"
	"github.com/chazu/pypeline/pkg/query"
	"github.com/chazu/pypeline/pkg/store"
	"github.com/chazu/pypeline/pkg/view"
	"github.com/chazu/pypeline/pkg/workbench"
)

const MIMEMsgpack = "application/msgpack"

// Handler serves requests against one workbench. The store is optional;
// without it the document routes answer 503.
type Handler struct {
	wb      *workbench.Workbench
	store   *store.Store
	version string
}

func NewHandler(wb *workbench.Workbench, st *store.Store, version string) *Handler {
	return &Handler{wb: wb, store: st, version: version}
}

// EvaluateRequest is the body of POST /api/evaluate.
type EvaluateRequest struct {
	Source string `json:"source" msgpack:"source"`
}

// PartListRequest is the body of POST /api/partlist. An empty container
// lists every part in the document.
type PartListRequest struct {
	Container string `json:"container"`
}

type PartListResponse struct {
	Name string     `json:"name"`
	Rows [][]string `json:"rows"`
}

// FindRequest searches the part list of Container for Target.
type FindRequest struct {
	Container string `json:"container"`
	Target    string `json:"target"`
}

type FindResponse struct {
	Found   bool   `json:"found"`
	Address string `json:"address,omitempty"`
	Row     int    `json:"row,omitempty"`
	Col     int    `json:"col,omitempty"`
}

// HandleHealth returns server health status.
func (h *Handler) HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"version": h.version,
	})
}

// HandleEvaluate runs DSL source. Source errors are part of a 200
// response; the response is msgpack when the client accepts it.
func (h *Handler) HandleEvaluate(c echo.Context) error {
	var req EvaluateRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if strings.TrimSpace(req.Source) == "" {
		return NewValidationError("source")
	}
	res := h.wb.Evaluate(req.Source)

	if strings.Contains(c.Request().Header.Get(echo.HeaderAccept), MIMEMsgpack) {
		data, err := msgpack.Marshal(res)
		if err != nil {
			return NewInternalError("failed to encode msgpack", err)
		}
		return c.Blob(http.StatusOK, MIMEMsgpack, data)
	}
	return c.JSON(http.StatusOK, res)
}

// current runs fn on the current document under the workbench lock.
func (h *Handler) current(fn func(d *doc.Document) error) error {
	err := h.wb.Do(fn)
	if errors.Is(err, workbench.ErrNoDocument) {
		return NewConflictError("nothing has been evaluated yet")
	}
	return err
}

// HandleTree returns the object tree of the current document.
func (h *Handler) HandleTree(c echo.Context) error {
	var tree []view.Node
	if err := h.current(func(d *doc.Document) error {
		tree = view.Tree(d)
		return nil
	}); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tree)
}

// HandleQuery reports one feature of the current document.
func (h *Handler) HandleQuery(c echo.Context) error {
	label := c.Param("label")
	var rep query.Report
	if err := h.current(func(d *doc.Document) error {
		f := d.ByLabel(label)
		if f == nil {
			return NewNotFoundError("feature", label)
		}
		rep = query.Info(d, f)
		return nil
	}); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rep)
}

func (h *Handler) partList(label string) (*query.Sheet, error) {
	var sheet *query.Sheet
	err := h.current(func(d *doc.Document) error {
		ids, err := query.Scope(d, label)
		if errors.Is(err, query.ErrNoFeature) {
			return NewNotFoundError("feature", label)
		}
		if err != nil {
			return err
		}
		sheet = query.PartList(d, ids)
		return nil
	})
	return sheet, err
}

// HandlePartList returns the part list as rows, or as CSV when the
// client accepts text/csv.
func (h *Handler) HandlePartList(c echo.Context) error {
	var req PartListRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	sheet, err := h.partList(req.Container)
	if err != nil {
		return err
	}
	if strings.Contains(c.Request().Header.Get(echo.HeaderAccept), "text/csv") {
		var buf bytes.Buffer
		if err := sheet.CSV(&buf); err != nil {
			return NewInternalError("failed to write csv", err)
		}
		return c.Blob(http.StatusOK, "text/csv", buf.Bytes())
	}
	return c.JSON(http.StatusOK, PartListResponse{Name: sheet.Name, Rows: sheet.Rows()})
}

// HandleFind returns the first part list cell equal to the target.
func (h *Handler) HandleFind(c echo.Context) error {
	var req FindRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if req.Target == "" {
		return NewValidationError("target")
	}
	sheet, err := h.partList(req.Container)
	if err != nil {
		return err
	}
	addr, ok := query.FindFirst(sheet, req.Target)
	if !ok {
		return c.JSON(http.StatusOK, FindResponse{})
	}
	row, col, err := query.CellRC(addr)
	if err != nil {
		return NewInternalError("bad address", err)
	}
	return c.JSON(http.StatusOK, FindResponse{Found: true, Address: addr, Row: row, Col: col})
}

// HandleIcon serves the SVG icon of a feature type.
func (h *Handler) HandleIcon(c echo.Context) error {
	ptype := c.Param("ptype")
	name := view.IconPath(ptype)
	if ptype == "query" {
		name = view.QueryIcon
	}
	data, err := view.Icon(name)
	if err != nil {
		return NewNotFoundError("icon", ptype)
	}
	return c.Blob(http.StatusOK, "image/svg+xml", data)
}

func (h *Handler) needStore() error {
	if h.store == nil {
		return NewServiceUnavailableError("no document store configured")
	}
	return nil
}

// HandleListDocuments lists stored documents.
func (h *Handler) HandleListDocuments(c echo.Context) error {
	if err := h.needStore(); err != nil {
		return err
	}
	list, err := h.store.List(c.Request().Context())
	if err != nil {
		return NewInternalError("failed to list documents", err)
	}
	if list == nil {
		list = []store.Summary{}
	}
	return c.JSON(http.StatusOK, list)
}

// HandleSaveDocument stores the current document under the given name.
func (h *Handler) HandleSaveDocument(c echo.Context) error {
	if err := h.needStore(); err != nil {
		return err
	}
	name := c.Param("name")
	err := h.current(func(d *doc.Document) error {
		d.Name = name
		return h.store.Save(c.Request().Context(), d)
	})
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	if err != nil {
		return NewInternalError("failed to save document", err)
	}
	return c.JSON(http.StatusCreated, map[string]string{"name": name})
}

// HandleOpenDocument loads a stored document, recomputes it and makes it
// current. The response is the same as an evaluation.
func (h *Handler) HandleOpenDocument(c echo.Context) error {
	if err := h.needStore(); err != nil {
		return err
	}
	name := c.Param("name")
	d, err := h.store.Load(c.Request().Context(), name, h.wb.Kernel())
	if errors.Is(err, store.ErrNotFound) {
		return NewNotFoundError("document", name)
	}
	if err != nil {
		return NewInternalError("failed to load document", err)
	}
	return c.JSON(http.StatusOK, h.wb.Adopt(d))
}

// HandleDeleteDocument removes a stored document.
func (h *Handler) HandleDeleteDocument(c echo.Context) error {
	if err := h.needStore(); err != nil {
		return err
	}
	name := c.Param("name")
	err := h.store.Delete(c.Request().Context(), name)
	if errors.Is(err, store.ErrNotFound) {
		return NewNotFoundError("document", name)
	}
	if err != nil {
		return NewInternalError("failed to delete document", err)
	}
	return c.NoContent(http.StatusNoContent)
}
