package devapi

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jrsteele09/go-session-gateway/internal/utils"
	"github.com/jrsteele09/go-session-gateway/payroll"
	"github.com/jrsteele09/go-session-gateway/users"
)

// Dataset is the in-memory payroll data the development API serves.
type Dataset struct {
	mu            sync.RWMutex
	employees     map[string]payroll.Employee
	runs          []payroll.PayrollRun
	notifications map[string][]payroll.Notification // user ID -> notifications
}

func NewDataset() *Dataset {
	return &Dataset{
		employees:     make(map[string]payroll.Employee),
		notifications: make(map[string][]payroll.Notification),
	}
}

func (d *Dataset) AddEmployee(e payroll.Employee) payroll.Employee {
	d.mu.Lock()
	defer d.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	d.employees[e.ID] = e
	return e
}

func (d *Dataset) AddPayrollRun(run payroll.PayrollRun) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.runs = append(d.runs, run)
}

func (d *Dataset) Notify(userID string, n payroll.Notification) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.notifications[userID] = append(d.notifications[userID], n)
}

func (d *Dataset) Employee(id string) (payroll.Employee, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.employees[id]
	return e, ok
}

// Employees returns a page of employees ordered by ID.
func (d *Dataset) Employees(status payroll.EmployeeStatus, visible func(payroll.Employee) bool, limit, offset int) []payroll.Employee {
	d.mu.RLock()
	defer d.mu.RUnlock()

	list := make([]payroll.Employee, 0, len(d.employees))
	for _, e := range d.employees {
		if status != "" && e.Status != status {
			continue
		}
		if visible != nil && !visible(e) {
			continue
		}
		list = append(list, e)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })

	if limit <= 0 || offset < 0 || offset >= len(list) {
		return []payroll.Employee{}
	}
	return list[offset : offset+min(limit, len(list)-offset)]
}

func (d *Dataset) PayrollRuns() []payroll.PayrollRun {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]payroll.PayrollRun{}, d.runs...)
}

func (d *Dataset) Notifications(userID string) []payroll.Notification {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]payroll.Notification{}, d.notifications[userID]...)
}

// SeedUser describes a development login.
type SeedUser struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      users.RoleType
}

var DefaultSeedUsers = []SeedUser{
	{Email: "admin@payroll.test", Password: "Admin2024!", FirstName: "Alex", LastName: "Admin", Role: users.RoleAdmin},
	{Email: "employer@payroll.test", Password: "Employer2024!", FirstName: "Erin", LastName: "Employer", Role: users.RoleEmployer},
	{Email: "employee@payroll.test", Password: "Employee2024!", FirstName: "Eli", LastName: "Employee", Role: users.RoleEmployee},
	{Email: "auditor@payroll.test", Password: "Auditor2024!", FirstName: "Ari", LastName: "Auditor", Role: users.RoleAuditor},
}

// Seed stores the given users and a small payroll dataset that references them.
func Seed(repo users.UserRepo, data *Dataset, seedUsers []SeedUser) error {
	now := time.Now().UTC()
	for _, su := range seedUsers {
		if err := users.ValidatePasswordStrength(su.Password); err != nil {
			return fmt.Errorf("devapi.Seed %s: %w", su.Email, err)
		}
		hash, err := users.HashPassword(su.Password)
		if err != nil {
			return err
		}
		user := &users.User{
			Email:        su.Email,
			PasswordHash: hash,
			FirstName:    su.FirstName,
			LastName:     su.LastName,
			Role:         su.Role,
			DateJoined:   now,
		}
		if err := repo.Upsert(user); err != nil {
			return err
		}

		data.AddEmployee(payroll.Employee{
			FirstName:  su.FirstName,
			LastName:   su.LastName,
			Email:      su.Email,
			Department: string(su.Role),
			Salary:     5_000_000,
			Currency:   "USD",
			Status:     payroll.EmployeeActive,
			StartDate:  now.AddDate(-1, 0, 0),
		})
		data.Notify(user.ID, payroll.Notification{
			ID:        uuid.New().String(),
			Title:     "Welcome",
			Message:   "Your payroll account is ready.",
			CreatedAt: now,
		})
	}

	data.AddPayrollRun(payroll.PayrollRun{
		ID:            uuid.New().String(),
		Period:        now.AddDate(0, -1, 0).Format("2006-01"),
		Status:        payroll.RunProcessed,
		EmployeeCount: len(seedUsers),
		TotalGross:    int64(len(seedUsers)) * 416_667,
		TotalNet:      int64(len(seedUsers)) * 312_500,
		Currency:      "USD",
		ProcessedAt:   utils.Ptr(now.AddDate(0, 0, -3)),
	})
	data.AddPayrollRun(payroll.PayrollRun{
		ID:            uuid.New().String(),
		Period:        now.Format("2006-01"),
		Status:        payroll.RunDraft,
		EmployeeCount: len(seedUsers),
		Currency:      "USD",
	})
	return nil
}
