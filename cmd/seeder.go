package cmd

import (
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	assignmentPostgres "github.com/docuvault/access-management/internal/assignment/postgres"
	grantPostgres "github.com/docuvault/access-management/internal/grant/postgres"
	profilePostgres "github.com/docuvault/access-management/internal/profile/postgres"

	"github.com/docuvault/access-management/internal/assignment"
	"github.com/docuvault/access-management/internal/grant"
	"github.com/docuvault/access-management/internal/permission"
	"github.com/docuvault/access-management/internal/profile"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample data for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}

		gormDB, err := initGorm(db)
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		if clearData {
			for _, table := range []string{"profile_assignments", "profile_folder_grants", "profiles", "user_permissions", "permissions", "users"} {
				if err := gormDB.Exec("DELETE FROM " + table).Error; err != nil {
					log.Fatalf("failed to clear table %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		orgID := seedOrganizationID(gormDB)
		adminID := seedUser(gormDB, "admin@docuvault.io", "Vault Admin", orgID)
		memberID := seedUser(gormDB, "member@docuvault.io", "Vault Member", orgID)

		seedPermissions(gormDB, adminID, memberID)
		seedAccessData(gormDB, orgID, adminID, memberID)
	},
}

// seedOrganizationID reuses the org of an existing user so repeated runs
// stay inside one organization.
func seedOrganizationID(db *gorm.DB) uuid.UUID {
	var existing string
	row := db.Raw("SELECT organization_id FROM users LIMIT 1").Row()
	if err := row.Scan(&existing); err == nil {
		if id, parseErr := uuid.Parse(existing); parseErr == nil {
			return id
		}
	}
	return uuid.New()
}

func seedUser(db *gorm.DB, email, name string, orgID uuid.UUID) uuid.UUID {
	var existing string
	row := db.Raw("SELECT id FROM users WHERE email = ?", email).Row()
	if err := row.Scan(&existing); err == nil {
		fmt.Println("user already exists:", email)
		id, parseErr := uuid.Parse(existing)
		if parseErr != nil {
			log.Fatalf("invalid user id for %s: %v", email, parseErr)
		}
		return id
	}

	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)

	id := uuid.New()
	if err := db.Exec(
		"INSERT INTO users (id, email, name, password_hash, organization_id, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, ?, true, now(), now())",
		id, email, name, string(hash), orgID,
	).Error; err != nil {
		log.Fatalf("failed to insert user %s: %v", email, err)
	}
	fmt.Println("Seeded user:", email)
	return id
}

func seedPermissions(db *gorm.DB, adminID, memberID uuid.UUID) {
	permissions := []struct {
		Name string
		Desc string
	}{
		{"admin", "full administrator"},
		{"profiles:manage", "Can manage access profiles"},
		{"grants:manage", "Can manage folder grants"},
		{"assignments:manage", "Can manage profile assignments"},
		{"access:read", "Can inspect resolved access"},
	}

	for _, p := range permissions {
		var pid int64
		row := db.Raw("SELECT id FROM permissions WHERE name = ?", p.Name).Row()
		if err := row.Scan(&pid); err != nil {
			if err := db.Exec("INSERT INTO permissions (name, description, created_at) VALUES (?, ?, now())", p.Name, p.Desc).Error; err != nil {
				log.Fatalf("failed to insert permission %s: %v", p.Name, err)
			}
		}
	}

	grantTo := func(userID uuid.UUID, names []string) {
		for _, name := range names {
			var pid int64
			if err := db.Raw("SELECT id FROM permissions WHERE name = ?", name).Row().Scan(&pid); err != nil {
				log.Fatalf("permission not found after insert %s: %v", name, err)
			}

			var exists int
			if err := db.Raw("SELECT 1 FROM user_permissions WHERE user_id = ? AND permission_id = ?", userID, pid).Row().Scan(&exists); err == nil {
				continue
			}

			if err := db.Exec("INSERT INTO user_permissions (user_id, permission_id, granted_by, created_at) VALUES (?, ?, NULL, now())", userID, pid).Error; err != nil {
				log.Fatalf("failed to grant permission %s: %v", name, err)
			}
		}
	}

	grantTo(adminID, []string{"admin"})
	grantTo(memberID, []string{"access:read"})
	fmt.Println("Seeded permissions")
}

// seedAccessData creates the default system profile plus a sample profile
// with grants and an assignment, going through the domain entities so the
// same validation rules apply as in the API path.
func seedAccessData(db *gorm.DB, orgID, adminID, memberID uuid.UUID) {
	profileRepo := profilePostgres.NewProfileRepository(db)
	grantRepo := grantPostgres.NewGrantRepository(db)
	assignmentRepo := assignmentPostgres.NewAssignmentRepository(db)

	ensureProfile := func(p *profile.Profile) uuid.UUID {
		if existing, err := profileRepo.GetByName(orgID, p.Name); err == nil {
			fmt.Println("profile already exists:", p.Name)
			return existing.ID
		}
		if err := profileRepo.Create(profile.ToDataModel(p)); err != nil {
			log.Fatalf("failed to insert profile %s: %v", p.Name, err)
		}
		fmt.Println("Seeded profile:", p.Name)
		return p.ID
	}

	defaultProfile, err := profile.NewSystemProfile("Default Access", "Baseline read access to shared documents", orgID, adminID)
	if err != nil {
		log.Fatalf("failed to build default profile: %v", err)
	}
	defaultID := ensureProfile(defaultProfile)

	engProfile, err := profile.NewProfile("Engineering", "Full control over project folders", orgID, adminID, nil)
	if err != nil {
		log.Fatalf("failed to build engineering profile: %v", err)
	}
	engID := ensureProfile(engProfile)

	seedGrant := func(profileID uuid.UUID, folderPath string, level permission.Level) {
		existing, err := grantRepo.GetActiveByProfileID(profileID)
		if err == nil {
			for _, g := range existing {
				if g.FolderPath == folderPath {
					return
				}
			}
		}
		fg, err := grant.NewFolderGrant(profileID, folderPath, level, orgID, adminID, nil, nil)
		if err != nil {
			log.Fatalf("failed to build grant for %s: %v", folderPath, err)
		}
		if err := grantRepo.Create(grant.ToDataModel(fg)); err != nil {
			log.Fatalf("failed to insert grant for %s: %v", folderPath, err)
		}
		fmt.Println("Seeded grant:", folderPath)
	}

	seedGrant(defaultID, "/documents/shared", permission.LevelRead)
	seedGrant(engID, "/documents/projects", permission.LevelFull)
	seedGrant(engID, "/documents/specs", permission.LevelEdit)

	if existing, err := assignmentRepo.GetActiveByUserAndProfile(memberID, defaultID); err == nil && existing != nil {
		fmt.Println("member assignment already exists")
		return
	}
	asn, err := assignment.NewAssignment(memberID, defaultID, orgID, adminID, nil, nil, nil)
	if err != nil {
		log.Fatalf("failed to build assignment: %v", err)
	}
	if err := assignmentRepo.Create(assignment.ToDataModel(asn)); err != nil {
		log.Fatalf("failed to insert assignment: %v", err)
	}
	fmt.Println("Seeded member assignment to Default Access")
}
