package internal

import (
	"net/http"
	"strings"

	"gadget-inventory-api/internal/models"

	"github.com/go-chi/chi/v5"
)

// listAssets returns every asset, newest first, capped by the repository.
func (s *Server) listAssets(w http.ResponseWriter, r *http.Request) {
	assets, err := s.Assets.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, assets)
}

func (s *Server) searchAssets(w http.ResponseWriter, r *http.Request) {
	params, err := parseListParams(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	filter := parseAssetFilter(r)
	if err := s.validate.Struct(filter); err != nil {
		s.writeError(w, r, err)
		return
	}
	page, err := s.Assets.Search(r.Context(), filter, params.page, params.limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// getAsset answers null for an unknown id.
func (s *Server) getAsset(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	asset, err := s.Assets.GetByID(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, asset)
}

func (s *Server) createAsset(w http.ResponseWriter, r *http.Request) {
	var req models.CreateAssetRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	asset, err := s.Assets.Create(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, asset)
}

// updateAsset applies a partial update. qr_code is not part of the update
// body, so it is silently ignored if sent.
func (s *Server) updateAsset(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req models.UpdateAssetRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	asset, err := s.Assets.Update(r.Context(), id, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, asset)
}

func (s *Server) deleteAsset(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.Assets.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.SuccessResponse{Success: true})
}

// scanQRCode resolves a QR code from the URL path. Unknown codes answer null.
func (s *Server) scanQRCode(w http.ResponseWriter, r *http.Request) {
	s.lookupQRCode(w, r, chi.URLParam(r, "code"))
}

func (s *Server) scanQRCodeBody(w http.ResponseWriter, r *http.Request) {
	var req models.ScanRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.lookupQRCode(w, r, req.QRCode)
}

func (s *Server) lookupQRCode(w http.ResponseWriter, r *http.Request, code string) {
	code = strings.TrimSpace(code)
	if code == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	asset, err := s.Assets.GetByQRCode(r.Context(), code)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, asset)
}
