package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/dixieflatline76/courtside/pkg/crop"
	"github.com/dixieflatline76/courtside/util/log"
)

// formOverhead is the room left for multipart boundaries and the small text fields.
const formOverhead = 1 << 20

// handleProfileImage crops an uploaded image and stores it as the avatar or cover.
// Path format: /profile/{avatar|cover}
// Form fields: file, and optionally aspect, zoom, rotate, offset ("x,y"), box ("x,y")
// and suggest ("true").
func (s *Server) handleProfileImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	typ, err := crop.ParseType(strings.TrimPrefix(r.URL.Path, "/profile/"))
	if err != nil {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	session, status, err := s.openSession(w, r, typ)
	if err != nil {
		writeError(w, status, err.Error())
		return
	}

	res := session.Apply()
	if res.Fallback {
		log.Printf("Crop %s fell back to the original image: %v", session.ID, res.Err)
	}

	if typ == crop.Avatar {
		s.store.SetAvatar(res.DataURI)
	} else {
		s.store.SetCover(res.DataURI)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"type":     typ,
		"dataUri":  res.DataURI,
		"fallback": res.Fallback,
	})
}

// handleCropPreview renders what the crop container shows for the given edits, as PNG.
// Form fields as for /profile/{type}, plus type.
func (s *Server) handleCropPreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	typ := crop.Avatar
	if v := r.URL.Query().Get("type"); v != "" {
		t, err := crop.ParseType(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		typ = t
	}

	session, status, err := s.openSession(w, r, typ)
	if err != nil {
		writeError(w, status, err.Error())
		return
	}
	defer session.Cancel()

	img, err := crop.Preview(session)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("X-Crop-Box", fmt.Sprintf("%.1f,%.1f,%.1f,%.1f",
		session.Box.X, session.Box.Y, session.Box.Width, session.Box.Height))
	if err := imaging.Encode(w, img, imaging.PNG); err != nil {
		log.Printf("Failed to write preview: %v", err)
	}
}

// openSession validates the upload and replays the requested edits on a fresh session.
// Nothing is created when the upload is rejected.
func (s *Server) openSession(w http.ResponseWriter, r *http.Request, typ crop.Type) (*crop.Session, int, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload+formOverhead)
	if err := r.ParseMultipartForm(formOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, http.StatusBadRequest, crop.ErrTooLarge
		}
		return nil, http.StatusBadRequest, errors.New("invalid multipart form")
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, http.StatusBadRequest, errors.New("file is required")
	}
	defer file.Close()

	mime, err := partMIME(file, header)
	if err != nil {
		return nil, http.StatusBadRequest, err
	}

	src, err := crop.LoadUpload(file, mime, header.Size, s.maxUpload)
	if err != nil {
		return nil, http.StatusBadRequest, err
	}

	aspect := crop.DefaultAspect(typ)
	if v := r.FormValue("aspect"); v != "" {
		aspect, err = strconv.ParseFloat(v, 64)
		if err != nil || !(aspect > 0) {
			return nil, http.StatusBadRequest, crop.ErrInvalidAspect
		}
	}
	steps, err := formSteps(r)
	if err != nil {
		return nil, http.StatusBadRequest, err
	}

	session := crop.NewSession(src, typ, aspect)
	session.Initialize(crop.DefaultViewport(typ))

	if s.suggester != nil && r.FormValue("suggest") == "true" {
		region, err := s.suggester.Suggest(r.Context(), src.Image, typ, aspect)
		if err != nil {
			log.Printf("Crop suggestion failed, keeping the centered box: %v", err)
		} else {
			session.ApplySuggestion(region)
		}
	}
	session.Play(steps)
	return session, http.StatusOK, nil
}

// partMIME returns the declared content type of the part, sniffing the content when
// the client sent none.
func partMIME(file multipart.File, header *multipart.FileHeader) (string, error) {
	mime := header.Header.Get("Content-Type")
	if mime != "" && mime != "application/octet-stream" {
		return mime, nil
	}
	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading upload: %w", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("reading upload: %w", err)
	}
	return http.DetectContentType(head[:n]), nil
}

func formSteps(r *http.Request) (crop.Steps, error) {
	var st crop.Steps
	var err error
	if v := r.FormValue("zoom"); v != "" {
		if st.Zoom, err = strconv.Atoi(v); err != nil {
			return st, fmt.Errorf("zoom must be a whole number of steps")
		}
	}
	if v := r.FormValue("rotate"); v != "" {
		if st.Rotate, err = strconv.Atoi(v); err != nil {
			return st, fmt.Errorf("rotate must be a whole number of quarter turns")
		}
	}
	if st.Offset, err = crop.ParsePoint(r.FormValue("offset")); err != nil {
		return st, err
	}
	if st.Box, err = crop.ParsePoint(r.FormValue("box")); err != nil {
		return st, err
	}
	return st, nil
}
