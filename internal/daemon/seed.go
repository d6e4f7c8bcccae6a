package daemon

import (
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/docvault/docvault/internal/auth"
	"github.com/docvault/docvault/internal/config"
	"github.com/docvault/docvault/internal/db/models"
)

// rolePermissions maps each seeded role to the permission names it starts
// with. Admin gets the full catalog and is handled separately.
var rolePermissions = map[string][]string{
	"editor": {
		"view_documents",
		"upload_documents",
		"edit_documents",
		"delete_documents",
		"share_documents",
	},
	"viewer": {
		"view_documents",
	},
}

var defaultCategories = []models.Category{
	{Name: "General", Color: "#6c757d", Description: "Uncategorized documents"},
	{Name: "Contracts", Color: "#0d6efd", Description: "Contracts and agreements"},
	{Name: "Invoices", Color: "#198754", Description: "Invoices and billing"},
	{Name: "Reports", Color: "#fd7e14", Description: "Reports and analysis"},
	{Name: "Legal", Color: "#dc3545", Description: "Legal documents"},
}

// seed populates the permission catalog, the default roles with their grants,
// the default categories and, on an empty user table, the initial admin
// account. Seeding is idempotent: existing rows are left untouched.
func seed(_ *config.Config, db *gorm.DB) {
	seedPermissions(db)
	seedRoles(db)
	seedCategories(db)
	seedAdminUser(db)
}

func seedPermissions(db *gorm.DB) {
	for i := range auth.Catalog {
		err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&auth.Catalog[i]).Error
		if err != nil {
			log.Error().Err(err).Str("permission", auth.Catalog[i].Name).Msg("failed to seed permission")
		}
	}
}

func seedRoles(db *gorm.DB) {
	roles := []models.Role{
		{Name: "admin", Description: "Full access to documents and administration", IsSystem: true},
		{Name: "editor", Description: "Manage documents", IsSystem: true},
		{Name: "viewer", Description: "View documents", IsSystem: true},
	}

	for i := range roles {
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&roles[i]).Error; err != nil {
			log.Error().Err(err).Str("role", roles[i].Name).Msg("failed to seed role")
		}
	}

	seedRoleGrants(db)
}

func seedRoleGrants(db *gorm.DB) {
	var permissions []models.Permission
	if err := db.Find(&permissions).Error; err != nil {
		log.Error().Err(err).Msg("failed to load permission catalog")
		return
	}

	byName := make(map[string]uint, len(permissions))
	for _, p := range permissions {
		byName[p.Name] = p.ID
	}

	grant := func(roleName string, permissionNames []string) {
		var r models.Role
		if err := db.Where("name = ?", roleName).First(&r).Error; err != nil {
			log.Error().Err(err).Str("role", roleName).Msg("failed to load seeded role")
			return
		}

		for _, name := range permissionNames {
			permissionID, ok := byName[name]
			if !ok {
				log.Error().Str("permission", name).Msg("unknown permission in seed table")
				continue
			}

			err := db.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&models.RolePermission{RoleID: r.ID, PermissionID: permissionID}).Error
			if err != nil {
				log.Error().Err(err).Str("role", roleName).Str("permission", name).
					Msg("failed to seed role permission")
			}
		}
	}

	// admin holds the full catalog
	all := make([]string, 0, len(permissions))
	for _, p := range permissions {
		all = append(all, p.Name)
	}

	grant("admin", all)

	for roleName, permissionNames := range rolePermissions {
		grant(roleName, permissionNames)
	}
}

func seedCategories(db *gorm.DB) {
	for i := range defaultCategories {
		err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&defaultCategories[i]).Error
		if err != nil {
			log.Error().Err(err).Str("category", defaultCategories[i].Name).Msg("failed to seed category")
		}
	}
}

func seedAdminUser(db *gorm.DB) {
	var count int64

	db.Model(&models.User{}).Count(&count)
	if count != 0 {
		return
	}

	admin := models.User{
		Email:      "admin@docvault.local",
		Password:   models.HashPassword("changeme"),
		FirstName:  "Admin",
		LastName:   "User",
		Active:     true,
		AuthSource: models.AuthSourceLocal,
	}

	if err := db.Create(&admin).Error; err != nil {
		log.Error().Err(err).Msg("failed to seed admin user")
		return
	}

	var adminRole models.Role
	if err := db.Where("name = ?", "admin").First(&adminRole).Error; err != nil {
		log.Error().Err(err).Msg("failed to load admin role")
		return
	}

	err := db.Create(&models.UserRole{UserID: admin.ID, RoleID: adminRole.ID, AssignedBy: admin.ID}).Error
	if err != nil {
		log.Error().Err(err).Msg("failed to assign admin role")
		return
	}

	log.Warn().Str("email", admin.Email).Msg("seeded initial admin account with default password, change it")
}
