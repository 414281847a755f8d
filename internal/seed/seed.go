package seed

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/cleared-dev/planner/internal/category"
	"github.com/cleared-dev/planner/internal/store"
)

// Document names of the non-category seeds.
const (
	SubcategoriesDoc = "subcategories"
	UsersDoc         = "users"
)

// Roles of the seeded user accounts.
const (
	RoleFull  = "full"
	RoleWrite = "write"
	RoleRead  = "read"
)

// Account is a user account to seed.
type Account struct {
	Username string
	Role     string
	Password string
}

// User is a stored user record.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Options controls the fixed default content.
type Options struct {
	Subcategories []string
	Users         []Account
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

// DefaultSubcategories are the budget subcategory labels of a fresh installation.
func DefaultSubcategories() []string {
	return []string{
		"Aluguel",
		"Contabilidade",
		"Energia elétrica",
		"Impostos",
		"Internet",
		"Manutenção",
		"Material de escritório",
		"Pró-labore",
		"Salários",
		"Software",
		"Telefonia",
		"Transporte",
		"Água",
	}
}

// DefaultUsers returns the three built-in accounts with the given initial passwords.
func DefaultUsers(adminPassword, editorPassword, viewerPassword string) []Account {
	return []Account{
		{Username: "admin", Role: RoleFull, Password: adminPassword},
		{Username: "editor", Role: RoleWrite, Password: editorPassword},
		{Username: "viewer", Role: RoleRead, Password: viewerPassword},
	}
}

// All returns every document the store must hold: the thirteen categories, the
// subcategory labels and the user accounts.
func All(opts Options) []store.Seed {
	seeds := Categories()
	labels := opts.Subcategories
	if len(labels) == 0 {
		labels = DefaultSubcategories()
	}
	seeds = append(seeds, Subcategories(labels))
	seeds = append(seeds, Users(opts.Users, opts.BcryptCost))
	return seeds
}

// Categories returns one seed per category document, built from its default shape.
func Categories() []store.Seed {
	descs := category.All()
	seeds := make([]store.Seed, 0, len(descs))
	for _, d := range descs {
		seeds = append(seeds, store.Seed{
			Name: d.Name,
			Build: func(now time.Time) ([]byte, error) {
				return category.Encode(d.Default(now))
			},
		})
	}
	return seeds
}

// Subcategories returns the seed for the label list, ordered alphabetically
// ignoring case and accents.
func Subcategories(labels []string) store.Seed {
	return store.Seed{
		Name: SubcategoriesDoc,
		Build: func(time.Time) ([]byte, error) {
			return encode(SortLabels(labels))
		},
	}
}

// SortLabels returns a sorted copy of labels using Brazilian Portuguese collation,
// case-insensitive.
func SortLabels(labels []string) []string {
	out := make([]string, len(labels))
	copy(out, labels)
	collate.New(language.BrazilianPortuguese, collate.IgnoreCase).SortStrings(out)
	return out
}

// Users returns the seed for the user accounts. Passwords are stored as bcrypt hashes.
func Users(accounts []Account, cost int) store.Seed {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return store.Seed{
		Name: UsersDoc,
		Build: func(now time.Time) ([]byte, error) {
			users, err := buildUsers(accounts, cost, now.UTC())
			if err != nil {
				return nil, err
			}
			return encode(users)
		},
	}
}

func buildUsers(accounts []Account, cost int, now time.Time) ([]User, error) {
	users := make([]User, 0, len(accounts))
	for _, a := range accounts {
		if a.Username == "" {
			return nil, errors.New("user account without username")
		}
		if a.Password == "" {
			return nil, fmt.Errorf("user %s: empty initial password", a.Username)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(a.Password), cost)
		if err != nil {
			return nil, fmt.Errorf("hashing password for %s: %w", a.Username, err)
		}
		users = append(users, User{
			ID:           uuid.NewString(),
			Username:     a.Username,
			Role:         a.Role,
			PasswordHash: string(hash),
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}
	return users, nil
}

// CheckPassword reports whether password matches the user's stored hash.
func (u User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

func encode(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
