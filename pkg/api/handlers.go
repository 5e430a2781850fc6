package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/familygrid/pkg/buildinfo"
	"github.com/matzehuels/familygrid/pkg/cache"
	"github.com/matzehuels/familygrid/pkg/errors"
	"github.com/matzehuels/familygrid/pkg/grid"
	"github.com/matzehuels/familygrid/pkg/layers"
	"github.com/matzehuels/familygrid/pkg/pipeline"
	"github.com/matzehuels/familygrid/pkg/tree"
)

const maxBodyBytes = 4 << 20

// =============================================================================
// Responses
// =============================================================================

type healthResponse struct {
	Status string         `json:"status"`
	Build  buildinfo.Info `json:"build"`
}

type listResponse struct {
	Trees []string `json:"trees"`
}

// editResponse reports the outcome of a tree edit. Only the ids the edit
// created are set.
type editResponse struct {
	Version      int                 `json:"version"`
	Person       tree.PersonID       `json:"person,omitempty"`
	Relationship tree.RelationshipID `json:"relationship,omitempty"`
	Value        string              `json:"value,omitempty"`
}

type gridResponse struct {
	Version int            `json:"version"`
	Layers  layers.Layers  `json:"layers"`
	Grid    *grid.Grid     `json:"grid"`
	Bands   [][]grid.Range `json:"bands"`
}

type relationshipRequest struct {
	Partner tree.PersonID `json:"partner,omitempty"`
}

type infoRequest struct {
	Value string `json:"value" validate:"required"`
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Build: buildinfo.Get()})
}

func (s *Server) listTrees(w http.ResponseWriter, r *http.Request) {
	ids, err := s.store.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Trees: append([]string{}, ids...)})
}

func (s *Server) getTree(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.Load(r.Context(), chi.URLParam(r, "treeID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	data, err := tree.Marshal(snap)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	setETag(w, snap.Version())
	writeBytes(w, http.StatusOK, pipeline.ContentTypes[pipeline.FormatJSON], data)
}

// putTree creates a tree, or replaces it when If-Match names the stored
// version. An empty body creates a tree holding a single person.
func (s *Server) putTree(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "treeID")
	base, _, err := ifMatch(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		s.fail(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "read body"))
		return
	}

	snap := tree.New()
	if len(bytes.TrimSpace(body)) > 0 {
		if snap, err = tree.Unmarshal(body); err != nil {
			s.fail(w, r, err)
			return
		}
	}
	d := snap.Data()
	d.Version = base + 1
	if snap, err = tree.FromData(d); err != nil {
		s.fail(w, r, err)
		return
	}

	if err := s.store.Save(r.Context(), id, snap, base); err != nil {
		s.fail(w, r, err)
		return
	}
	status := http.StatusOK
	if base == 0 {
		status = http.StatusCreated
	}
	setETag(w, snap.Version())
	writeJSON(w, status, editResponse{Version: snap.Version()})
}

func (s *Server) deleteTree(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "treeID")
	if err := s.store.Delete(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	if pd, ok := s.runner.Cache.(cache.PrefixDeleter); ok {
		n, err := pd.DeletePrefix(r.Context(), treeScope(id))
		if err != nil {
			s.logger.Warn("evict cache", "tree", id, "err", err)
		} else {
			s.logger.Debug("evicted cache", "tree", id, "entries", n)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// treeScope is the cache key prefix of a tree's layouts.
func treeScope(id string) string { return "tree:" + id + ":" }

func (s *Server) getGrid(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "treeID")
	snap, err := s.store.Load(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	runner := s.runner.Scoped(treeScope(id))
	opts := pipeline.Options{Formats: []string{pipeline.FormatJSON}}
	l, err := runner.ComputeLayers(r.Context(), snap, opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	g, bands, err := runner.BuildGrid(r.Context(), snap, l, opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	setETag(w, snap.Version())
	writeJSON(w, http.StatusOK, gridResponse{Version: snap.Version(), Layers: l, Grid: g, Bands: bands})
}

// renderTree renders a tree in the format named by the query. Optional
// parameters: theme, cell_width, cell_size, labels=false, drops=false,
// refresh=true.
func (s *Server) renderTree(w http.ResponseWriter, r *http.Request) {
	opts, err := renderOptions(r.URL.Query())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	id := chi.URLParam(r, "treeID")
	snap, err := s.store.Load(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	result, err := s.runner.Scoped(treeScope(id)).ExecuteSnapshot(r.Context(), snap, opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	format := opts.Formats[0]
	setETag(w, snap.Version())
	writeBytes(w, http.StatusOK, pipeline.ContentTypes[format], result.Artifacts[format])
}

func (s *Server) addChild(w http.ResponseWriter, r *http.Request) {
	rid := tree.RelationshipID(chi.URLParam(r, "relID"))
	s.edit(w, r, func(snap *tree.Snapshot) (*tree.Snapshot, editResponse, error) {
		next, pid, err := snap.AddChild(rid)
		return next, editResponse{Person: pid}, err
	})
}

func (s *Server) addParent(w http.ResponseWriter, r *http.Request) {
	rid := tree.RelationshipID(chi.URLParam(r, "relID"))
	s.edit(w, r, func(snap *tree.Snapshot) (*tree.Snapshot, editResponse, error) {
		next, pid, newRid, err := snap.AddParent(rid)
		return next, editResponse{Person: pid, Relationship: newRid}, err
	})
}

// addRelationship starts a relationship for the person, with the partner
// from the optional body.
func (s *Server) addRelationship(w http.ResponseWriter, r *http.Request) {
	pid := tree.PersonID(chi.URLParam(r, "personID"))
	var req relationshipRequest
	if err := decodeBody(r, &req, true); err != nil {
		s.fail(w, r, err)
		return
	}
	s.edit(w, r, func(snap *tree.Snapshot) (*tree.Snapshot, editResponse, error) {
		var (
			next *tree.Snapshot
			rid  tree.RelationshipID
			err  error
		)
		if req.Partner != "" {
			next, rid, err = snap.AddRelationshipWithPartner(pid, req.Partner)
		} else {
			next, rid, err = snap.AddRelationship(pid)
		}
		return next, editResponse{Relationship: rid}, err
	})
}

func (s *Server) removePerson(w http.ResponseWriter, r *http.Request) {
	pid := tree.PersonID(chi.URLParam(r, "personID"))
	s.edit(w, r, func(snap *tree.Snapshot) (*tree.Snapshot, editResponse, error) {
		next, err := snap.RemovePerson(pid)
		return next, editResponse{}, err
	})
}

func (s *Server) setInfo(w http.ResponseWriter, r *http.Request) {
	pid := tree.PersonID(chi.URLParam(r, "personID"))
	key, err := keyParam(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req infoRequest
	if err := decodeBody(r, &req, false); err != nil {
		s.fail(w, r, err)
		return
	}
	s.edit(w, r, func(snap *tree.Snapshot) (*tree.Snapshot, editResponse, error) {
		next, err := snap.InsertInfo(pid, key, req.Value)
		return next, editResponse{}, err
	})
}

func (s *Server) removeInfo(w http.ResponseWriter, r *http.Request) {
	pid := tree.PersonID(chi.URLParam(r, "personID"))
	key, err := keyParam(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.edit(w, r, func(snap *tree.Snapshot) (*tree.Snapshot, editResponse, error) {
		next, value, err := snap.RemoveInfo(pid, key)
		return next, editResponse{Value: value}, err
	})
}

// =============================================================================
// Helpers
// =============================================================================

// edit loads the tree, applies fn and saves the result against the loaded
// version.
func (s *Server) edit(w http.ResponseWriter, r *http.Request, fn func(*tree.Snapshot) (*tree.Snapshot, editResponse, error)) {
	id := chi.URLParam(r, "treeID")
	want, pinned, err := ifMatch(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	snap, err := s.store.Load(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if pinned && snap.Version() != want {
		s.fail(w, r, errors.New(errors.ErrCodeVersionConflict,
			"tree %q is at version %d, If-Match names %d", id, snap.Version(), want))
		return
	}

	next, resp, err := fn(snap)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.store.Save(r.Context(), id, next, snap.Version()); err != nil {
		s.fail(w, r, err)
		return
	}

	s.logger.Debug("edited tree", "tree", id, "version", next.Version())
	resp.Version = next.Version()
	setETag(w, next.Version())
	writeJSON(w, http.StatusOK, resp)
}

// fail writes err as a JSON error response.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	writeError(w, err)
}

// ifMatch parses the If-Match header as a tree version. A missing header
// yields (0, false).
func ifMatch(r *http.Request) (int, bool, error) {
	h := strings.TrimSpace(r.Header.Get("If-Match"))
	if h == "" {
		return 0, false, nil
	}
	v, err := strconv.Atoi(strings.Trim(strings.TrimPrefix(h, "W/"), `"`))
	if err != nil || v < 1 {
		return 0, false, errors.New(errors.ErrCodeInvalidInput, "If-Match must be a tree version, got %q", h)
	}
	return v, true, nil
}

func keyParam(r *http.Request) (string, error) {
	key, err := url.PathUnescape(chi.URLParam(r, "key"))
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidKey, err, "bad info key")
	}
	if err := errors.ValidateInfoKey(key); err != nil {
		return "", err
	}
	return key, nil
}

func renderOptions(q url.Values) (pipeline.Options, error) {
	opts := pipeline.Options{
		Formats:  []string{q.Get("format")},
		Theme:    q.Get("theme"),
		NoLabels: q.Get("labels") == "false",
		NoDrops:  q.Get("drops") == "false",
		Refresh:  q.Get("refresh") == "true",
	}
	if opts.Formats[0] == "" {
		opts.Formats[0] = pipeline.FormatSVG
	}
	if v := q.Get("cell_width"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "cell_width: %q is not a number", v)
		}
		opts.CellWidth = n
	}
	if v := q.Get("cell_size"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "cell_size: %q is not a number", v)
		}
		opts.CellSize = f
	}
	if err := opts.ValidateForRender(); err != nil {
		return opts, err
	}
	return opts, nil
}

func decodeBody(r *http.Request, v any, optional bool) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "read body")
	}
	if len(bytes.TrimSpace(body)) == 0 {
		if optional {
			return nil
		}
		return errors.New(errors.ErrCodeInvalidInput, "request body is required")
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body")
	}
	return validateRequest(v)
}
