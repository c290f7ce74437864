package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/dialoguegraph/pkg/dialogue"
	"github.com/matzehuels/dialoguegraph/pkg/editor"
	"github.com/matzehuels/dialoguegraph/pkg/errors"
	"github.com/matzehuels/dialoguegraph/pkg/graph"
	"github.com/matzehuels/dialoguegraph/pkg/pipeline"
	"github.com/matzehuels/dialoguegraph/pkg/render"
	"github.com/matzehuels/dialoguegraph/pkg/session"
	"github.com/matzehuels/dialoguegraph/pkg/view"
)

type dialogueRequest struct {
	Name     string          `json:"name"`
	Document *graph.Document `json:"document,omitempty"`
}

type nodeRequest struct {
	Type string   `json:"type"`
	Text string   `json:"text,omitempty"`
	X    *float64 `json:"x,omitempty"`
	Y    *float64 `json:"y,omitempty"`
}

type edgeRequest struct {
	Source int  `json:"source"`
	Option *int `json:"option,omitempty"`
	Target int  `json:"target"`
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if items == nil {
		items = []session.Summary{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	var req dialogueRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	var doc graph.Document
	if req.Document == nil || len(req.Document.Nodes) == 0 {
		doc = s.controller().Save()
	} else {
		if _, err := graph.Validate(*req.Document); err != nil {
			s.writeError(w, r, err)
			return
		}
		doc = *req.Document
	}
	sess, err := session.New(req.Name, doc)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.Put(r.Context(), sess); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/dialogues/"+sess.ID)
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// put replaces a dialogue. Unknown IDs are created, so clients may choose
// their own identifiers.
func (s *Server) put(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req dialogueRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Document == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "document is required"))
		return
	}
	if _, err := graph.Validate(*req.Document); err != nil {
		s.writeError(w, r, err)
		return
	}

	sess, err := s.store.Get(r.Context(), id)
	switch {
	case errors.Is(err, errors.ErrCodeSessionNotFound):
		sess = &session.Session{ID: id}
	case err != nil:
		s.writeError(w, r, err)
		return
	}
	sess.Name = req.Name
	sess.Document = *req.Document
	if err := s.store.Put(r.Context(), sess); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) remove(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) addNode(w http.ResponseWriter, r *http.Request) {
	var req nodeRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	t, err := dialogue.ParseNodeType(req.Type)
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "node type"))
		return
	}
	var id int
	s.edit(w, r, http.StatusCreated, func(c *editor.Controller) error {
		at := s.fallback
		if req.X != nil && req.Y != nil {
			at = view.Point{X: *req.X, Y: *req.Y}
		}
		if id, err = c.AddNodeAt(t, at); err != nil {
			return err
		}
		if req.Text != "" {
			return c.SetText(id, req.Text)
		}
		return nil
	})
}

func (s *Server) removeNode(w http.ResponseWriter, r *http.Request) {
	node, err := strconv.Atoi(chi.URLParam(r, "node"))
	if err != nil {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "invalid node id %q", chi.URLParam(r, "node")))
		return
	}
	s.edit(w, r, http.StatusOK, func(c *editor.Controller) error {
		return c.RemoveNode(node)
	})
}

func (s *Server) connect(w http.ResponseWriter, r *http.Request) {
	var req edgeRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	option := dialogue.NoOption
	if req.Option != nil {
		option = *req.Option
	}
	s.edit(w, r, http.StatusOK, func(c *editor.Controller) error {
		return c.Connect(req.Source, option, req.Target)
	})
}

// edit loads a dialogue into a headless editor, applies fn and stores the
// result. Nothing is stored when fn fails.
func (s *Server) edit(w http.ResponseWriter, r *http.Request, status int, fn func(*editor.Controller) error) {
	sess, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	c := s.controller()
	defer c.Close()
	if err := c.Load(sess.Document); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := fn(c); err != nil {
		s.writeError(w, r, err)
		return
	}
	sess.Document = c.Save()
	if err := s.store.Put(r.Context(), sess); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, status, sess)
}

func (s *Server) controller() *editor.Controller {
	fallback := s.fallback
	return editor.NewSession(editor.Options{Fallback: &fallback, Logger: s.logger})
}

var contentTypes = map[string]string{
	render.FormatDOT:  "text/vnd.graphviz; charset=utf-8",
	render.FormatSVG:  "image/svg+xml",
	render.FormatPDF:  "application/pdf",
	render.FormatPNG:  "image/png",
	render.FormatJSON: "application/json",
}

func (s *Server) export(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	sess, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	opts := pipeline.Options{
		Formats:  []string{format},
		Detailed: q.Get("detailed") == "true",
		Pinned:   q.Get("pinned") == "true",
		Logger:   s.logger,
	}
	if v := q.Get("scale"); v != "" {
		if opts.Scale, err = strconv.ParseFloat(v, 64); err != nil {
			s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "invalid scale %q", v))
			return
		}
	}
	result, err := s.runner.Execute(r.Context(), sess.Document, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentTypes[format])
	w.Header().Set("ETag", `"`+result.DocHash+`"`)
	_, _ = w.Write(result.Artifacts[format])
}
