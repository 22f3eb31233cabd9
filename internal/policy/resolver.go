package policy

import (
	"context"
	"errors"

	"github.com/diewo77/go-orders/gate"
	"github.com/diewo77/go-orders/internal/models"
	"gorm.io/gorm"
)

// DBProfileResolver loads operator profiles by name.
type DBProfileResolver struct {
	DB *gorm.DB
}

func NewDBProfileResolver(db *gorm.DB) *DBProfileResolver {
	return &DBProfileResolver{DB: db}
}

// Resolve returns nil, nil for unknown profile names.
func (r *DBProfileResolver) Resolve(ctx context.Context, name string) (gate.Profile, error) {
	var p models.Profile
	err := r.DB.WithContext(ctx).Preload("Permissions").Where("name = ?", name).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	perms := make([]gate.Permission, 0, len(p.Permissions))
	for _, perm := range p.Permissions {
		perms = append(perms, gate.Permission(perm.Code()))
	}
	return gate.NewStaticProfile(p.Name, perms...), nil
}
