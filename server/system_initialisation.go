package server

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jrsteele09/go-hms-admin/api"
	"github.com/jrsteele09/go-hms-admin/internal/config"
	"github.com/jrsteele09/go-hms-admin/resources"
	"github.com/jrsteele09/go-hms-admin/users"
)

// SeedAccount is one of the development accounts created at start up
type SeedAccount struct {
	Username    string
	FirstName   string
	LastName    string
	Roles       []string
	Permissions []string
}

var SeedAccounts = []SeedAccount{
	{
		Username:  "admin",
		FirstName: "System",
		LastName:  "Administrator",
		Roles:     []string{"ROLE_ADMIN"},
		Permissions: []string{
			"beds:read", "beds:write", "rooms:read", "rooms:write",
			"donations:read", "donations:write", "reports:read", "reports:write",
			"invoices:read", "invoices:write",
		},
	},
	{
		Username:    "drhouse",
		FirstName:   "Gregory",
		LastName:    "House",
		Roles:       []string{"ROLE_DOCTOR"},
		Permissions: []string{"reports:read"},
	},
	{
		Username:    "nurse",
		FirstName:   "Carla",
		LastName:    "Espinosa",
		Roles:       []string{"ROLE_NURSE"},
		Permissions: []string{"beds:read", "beds:write", "rooms:read", "donations:read"},
	},
	{
		Username:    "labtech",
		FirstName:   "Abby",
		LastName:    "Sciuto",
		Roles:       []string{"ROLE_LABTECH"},
		Permissions: []string{"donations:read", "donations:write", "reports:read", "reports:write"},
	},
	{
		Username:    "accountant",
		FirstName:   "Oscar",
		LastName:    "Martinez",
		Roles:       []string{"ROLE_ACCOUNTANT"},
		Permissions: []string{"invoices:read", "invoices:write"},
	},
	{
		Username:    "reception",
		FirstName:   "Pam",
		LastName:    "Beesly",
		Roles:       []string{"ROLE_RECEPTIONIST"},
		Permissions: []string{"beds:read", "rooms:read"},
	},
}

// InitialiseSystem creates the development accounts and a few records in each
// collection. Returns the password shared by the seeded accounts. Accounts
// that already exist are left alone.
func (s *Server) InitialiseSystem(ctx context.Context, config config.Config) (string, error) {
	password := config.GetSeedPassword()
	if password == "" {
		// Generate a secure random password
		passwordBytes := make([]byte, 12)
		if _, err := rand.Read(passwordBytes); err != nil {
			return "", fmt.Errorf("[server InitialiseSystem] failed to generate password: %w", err)
		}
		password = base64.RawURLEncoding.EncodeToString(passwordBytes)
	}

	created := 0
	for _, seed := range SeedAccounts {
		ok, err := s.createAccount(ctx, seed, password)
		if err != nil {
			return "", fmt.Errorf("[server InitialiseSystem] failed to create %s: %w", seed.Username, err)
		}
		if ok {
			created++
		}
	}

	if err := s.seedRecords(); err != nil {
		return "", fmt.Errorf("[server InitialiseSystem] failed to seed records: %w", err)
	}

	if created > 0 {
		s.logger.Info().Msg("👤 Development accounts:")
		for _, seed := range SeedAccounts {
			s.logger.Info().Msgf("   %-12s %v", seed.Username, seed.Roles)
		}
		s.logger.Info().Msgf("   Password:    %s", password)
	}
	return password, nil
}

func (s *Server) createAccount(_ context.Context, seed SeedAccount, password string) (bool, error) {
	if existing, err := s.repos.Accounts.GetByUsername(seed.Username); err == nil && existing != nil {
		return false, nil
	}

	// Hash the password
	passwordHash, err := users.HashPassword(password)
	if err != nil {
		return false, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &users.Account{
		User: users.User{
			Username:  seed.Username,
			Email:     seed.Username + "@hospital.local",
			FirstName: seed.FirstName,
			LastName:  seed.LastName,
		},
		PasswordHash: passwordHash,
		Roles:        append([]string(nil), seed.Roles...),
		Permissions:  append([]string(nil), seed.Permissions...),
	}
	if err := s.repos.Accounts.Upsert(account); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Server) seedRecords() error {
	list, err := s.repos.Records.List(api.CollectionBeds)
	if err != nil {
		return err
	}
	if len(list) > 0 {
		return nil
	}

	issued := s.nowFunc().UTC().Truncate(24 * time.Hour)
	seeds := map[string][]any{
		api.CollectionRooms: {
			resources.Room{Number: "101", Type: resources.RoomGeneral, Floor: 1, Capacity: 4},
			resources.Room{Number: "ICU-1", Type: resources.RoomICU, Floor: 2, Capacity: 1},
		},
		api.CollectionBeds: {
			resources.Bed{Number: "101-A", Ward: "General", Status: resources.BedAvailable},
			resources.Bed{Number: "101-B", Ward: "General", Status: resources.BedOccupied, PatientName: "Jane Roe"},
			resources.Bed{Number: "ICU-1-A", Ward: "Intensive Care", Status: resources.BedMaintenance},
		},
		api.CollectionDonations: {
			resources.BloodDonation{DonorName: "Sam Donor", BloodGroup: "O-", Units: 1, DonatedAt: issued},
		},
		api.CollectionSchedules: {
			resources.DoctorSchedule{DoctorName: "Gregory House", Department: "Diagnostics", Day: "Monday", StartTime: "09:00", EndTime: "17:00"},
		},
		api.CollectionReports: {
			resources.PathologyReport{PatientName: "Jane Roe", TestName: "Complete blood count", Status: resources.ReportPending},
		},
		api.CollectionInvoices: {
			resources.Invoice{
				PatientName: "Jane Roe",
				Status:      resources.InvoiceIssued,
				IssuedAt:    &issued,
				Items: []resources.LineItem{
					{Description: "Ward bed, per night", Quantity: 2, UnitPrice: 12000},
					{Description: "Complete blood count", Quantity: 1, UnitPrice: 3500},
				},
			},
		},
	}

	for _, collection := range api.Collections {
		codec := collectionCodecs[collection]
		for i, seed := range seeds[collection] {
			body, err := json.Marshal(seed)
			if err != nil {
				return err
			}
			id := fmt.Sprintf("%s-%d", collection, i+1)
			record, err := codec(body, id)
			if err != nil {
				return fmt.Errorf("%s: %w", collection, err)
			}
			if err := s.repos.Records.Upsert(collection, id, record); err != nil {
				return err
			}
		}
	}
	return nil
}
