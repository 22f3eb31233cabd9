package policy

import (
	"errors"

	"github.com/diewo77/go-orders/gate"
	"github.com/diewo77/go-orders/internal/models"
	"gorm.io/gorm"
)

// BuiltinProfile is a profile created by SeedProfiles.
type BuiltinProfile struct {
	Name        string
	Description string
	Permissions []gate.Permission
}

// Builtins are the system profiles: admin may do anything, clerk runs the
// daily order business, viewer only reads.
var Builtins = []BuiltinProfile{
	{
		Name:        "admin",
		Description: "Full access",
		Permissions: []gate.Permission{gate.PermissionSuperAdmin},
	},
	{
		Name:        "clerk",
		Description: "Order processing, payments and reports",
		Permissions: []gate.Permission{
			"order:*",
			"catalog:list",
			"catalog:view",
			"catalog:create",
			"receiver:list",
			"payment:import",
			"payment:view",
			"report:export",
			"tool:use",
		},
	},
	{
		Name:        "viewer",
		Description: "Read-only access to orders and invoices",
		Permissions: []gate.Permission{
			"order:list",
			"order:view",
			"catalog:list",
			"tool:use",
		},
	},
}

// StaticResolver serves Builtins without a database.
func StaticResolver() *gate.StaticResolver[string] {
	r := gate.NewStaticResolver[string]()
	for _, b := range Builtins {
		r.Set(b.Name, gate.NewStaticProfile(b.Name, b.Permissions...))
	}
	return r
}

// SeedProfiles creates Builtins and their permissions. It is idempotent and
// resets the permissions of existing system profiles.
func SeedProfiles(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for _, b := range Builtins {
			var profile models.Profile
			err := tx.Where("name = ?", b.Name).First(&profile).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				profile = models.Profile{Name: b.Name, Description: b.Description, IsSystem: true}
				err = tx.Create(&profile).Error
			}
			if err != nil {
				return err
			}

			perms := make([]models.Permission, 0, len(b.Permissions))
			for _, code := range b.Permissions {
				res, act := code.Parse()
				perm := models.Permission{Resource: string(res), Action: string(act)}
				if err := tx.Where("resource = ? AND action = ?", perm.Resource, perm.Action).
					FirstOrCreate(&perm).Error; err != nil {
					return err
				}
				perms = append(perms, perm)
			}
			if err := tx.Model(&profile).Association("Permissions").Replace(perms); err != nil {
				return err
			}
		}
		return nil
	})
}
