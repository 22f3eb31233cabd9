package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/diewo77/go-orders/gate"
	"github.com/diewo77/go-orders/httpx"
	"github.com/diewo77/go-orders/internal/models"
	"github.com/diewo77/go-orders/validation"
	"gorm.io/gorm"
)

var (
	errProfileNotFound = errors.New("profile_not_found")
	errSystemProfile   = errors.New("system_profile")
)

// AdminProfileHandler manages operator profiles and their permissions.
type AdminProfileHandler struct {
	DB            *gorm.DB
	CacheResolver *gate.CachedResolver[string] // invalidated on every change
}

func NewAdminProfileHandler(db *gorm.DB, cacheResolver *gate.CachedResolver[string]) *AdminProfileHandler {
	return &AdminProfileHandler{DB: db, CacheResolver: cacheResolver}
}

type profileRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
}

// List handles GET /admin/profiles.
func (h *AdminProfileHandler) List(w http.ResponseWriter, r *http.Request) {
	var profiles []models.Profile
	if err := h.DB.WithContext(r.Context()).Preload("Permissions").Order("name").Find(&profiles).Error; err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"profiles": profiles})
}

// Create handles POST /admin/profiles.
func (h *AdminProfileHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	v := validation.Violations{}
	validation.Required("name", req.Name, v)
	perms := checkPermissions(req.Permissions, v)
	if !v.Empty() {
		writeError(w, r, invalidAll(v))
		return
	}

	profile := models.Profile{Name: req.Name, Description: strings.TrimSpace(req.Description)}
	err := h.DB.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Profile{}).Where("name = ?", profile.Name).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return invalid("name", "already_exists")
		}
		if err := tx.Create(&profile).Error; err != nil {
			return err
		}
		return replacePermissions(tx, &profile, perms)
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.CacheResolver.Invalidate(profile.Name)
	httpx.JSON(w, http.StatusCreated, profile)
}

// SavePermissions handles PUT /admin/profiles/{id}/permissions and replaces
// the permission set. System profiles are reset by the seed and refused here.
func (h *AdminProfileHandler) SavePermissions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req profileRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	v := validation.Violations{}
	perms := checkPermissions(req.Permissions, v)
	if !v.Empty() {
		writeError(w, r, invalidAll(v))
		return
	}

	var profile models.Profile
	err = h.DB.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		if err := h.load(tx, id, &profile); err != nil {
			return err
		}
		return replacePermissions(tx, &profile, perms)
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.CacheResolver.Invalidate(profile.Name)
	httpx.JSON(w, http.StatusOK, profile)
}

// Delete handles DELETE /admin/profiles/{id}.
func (h *AdminProfileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var profile models.Profile
	err = h.DB.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		if err := h.load(tx, id, &profile); err != nil {
			return err
		}
		if err := tx.Model(&profile).Association("Permissions").Clear(); err != nil {
			return err
		}
		return tx.Delete(&profile).Error
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.CacheResolver.Invalidate(profile.Name)
	w.WriteHeader(http.StatusNoContent)
}

// load fetches an editable profile.
func (h *AdminProfileHandler) load(tx *gorm.DB, id uint, p *models.Profile) error {
	err := tx.First(p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errProfileNotFound
	}
	if err != nil {
		return err
	}
	if p.IsSystem {
		return errSystemProfile
	}
	return nil
}

func checkPermissions(codes []string, v validation.Violations) []gate.Permission {
	perms := make([]gate.Permission, 0, len(codes))
	for _, c := range codes {
		p := gate.Permission(strings.TrimSpace(c))
		if !p.Valid() {
			v.Add("permissions", "invalid_permission")
			continue
		}
		perms = append(perms, p)
	}
	return perms
}

func replacePermissions(tx *gorm.DB, profile *models.Profile, perms []gate.Permission) error {
	rows := make([]models.Permission, 0, len(perms))
	for _, code := range perms {
		res, act := code.Parse()
		perm := models.Permission{Resource: string(res), Action: string(act)}
		if err := tx.Where("resource = ? AND action = ?", perm.Resource, perm.Action).
			FirstOrCreate(&perm).Error; err != nil {
			return err
		}
		rows = append(rows, perm)
	}
	if err := tx.Model(profile).Association("Permissions").Replace(rows); err != nil {
		return err
	}
	profile.Permissions = rows
	return nil
}
