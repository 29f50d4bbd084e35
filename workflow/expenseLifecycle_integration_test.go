package workflow_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/budget_backend/auth"
	"bitbucket.org/mmdatafocus/budget_backend/config"
	"bitbucket.org/mmdatafocus/budget_backend/models"
	"bitbucket.org/mmdatafocus/budget_backend/utils"
	"bitbucket.org/mmdatafocus/budget_backend/workflow"
)

func TestExpenseLifecycleIntegration(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	// Wire env for config.ConnectDatabaseWithRetry.
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "budget_test")

	db := config.ConnectDatabaseWithRetry()
	models.MigrateTable(db)

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	svc := &workflow.ExpenseService{
		DB:       db,
		Logger:   logger,
		Notifier: &workflow.Notifier{Logger: logger, DB: db},
	}

	staff := seedUser(t, db, "staff@test.local", models.UserRoleStaff, "Science")
	hod := seedUser(t, db, "hod@test.local", models.UserRoleHOD, "Science")
	category := seedCategory(t, db, "Equipment")

	t.Run("submit overflow rejected and boundary accepted", func(t *testing.T) {
		budget := seedBudget(t, db, staff.ID, decimal.NewFromInt(100000))
		if err := models.ReplaceBudgetAllocations(db, budget.ID, []models.NewBudgetCategory{
			{CategoryId: category.ID, AllocatedAmount: decimal.NewFromInt(100000)},
		}); err != nil {
			t.Fatalf("ReplaceBudgetAllocations: %v", err)
		}

		// Pre-existing approved spend of 60000.
		if _, _, err := svc.Submit(ctx, newExpenseInput(budget.ID, category.ID, 60000), staff); err != nil {
			t.Fatalf("seed submit: %v", err)
		}

		_, _, err := svc.Submit(ctx, newExpenseInput(budget.ID, category.ID, 45000), staff)
		var insufficient *utils.InsufficientBudgetError
		if !errors.As(err, &insufficient) {
			t.Fatalf("overflow submit: want InsufficientBudgetError, got %v", err)
		}
		if got := countBudgetExpenses(t, db, budget.ID); got != 1 {
			t.Fatalf("overflow submit left %d rows, want 1 (no row on rejection)", got)
		}

		// Exactly filling the budget is allowed: spent + amount == allotted.
		if _, _, err := svc.Submit(ctx, newExpenseInput(budget.ID, category.ID, 40000), staff); err != nil {
			t.Fatalf("boundary submit: %v", err)
		}
		spent, err := models.SumBudgetSpend(db, budget.ID)
		if err != nil {
			t.Fatalf("SumBudgetSpend: %v", err)
		}
		if !spent.Equal(decimal.NewFromInt(100000)) {
			t.Fatalf("spent = %s, want 100000", spent)
		}

		breakdown, err := workflow.CategoryBreakdown(db, budget.ID)
		if err != nil {
			t.Fatalf("CategoryBreakdown: %v", err)
		}
		if len(breakdown) != 1 || !breakdown[0].Allocated.Equal(decimal.NewFromInt(100000)) {
			t.Fatalf("breakdown allocated not populated: %+v", breakdown)
		}
	})

	t.Run("concurrent submissions cannot jointly overspend", func(t *testing.T) {
		budget := seedBudget(t, db, staff.ID, decimal.NewFromInt(100000))

		var wg sync.WaitGroup
		results := make([]error, 2)
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, _, results[i] = svc.Submit(ctx, newExpenseInput(budget.ID, category.ID, 60000), staff)
			}(i)
		}
		wg.Wait()

		successes := 0
		for _, err := range results {
			if err == nil {
				successes++
				continue
			}
			var insufficient *utils.InsufficientBudgetError
			if !errors.As(err, &insufficient) {
				t.Fatalf("loser got %v, want InsufficientBudgetError", err)
			}
		}
		if successes != 1 {
			t.Fatalf("%d submissions succeeded, want exactly 1", successes)
		}

		spent, err := models.SumBudgetSpend(db, budget.ID)
		if err != nil {
			t.Fatalf("SumBudgetSpend: %v", err)
		}
		if spent.GreaterThan(budget.AllottedAmount) {
			t.Fatalf("spent %s exceeds allotted %s", spent, budget.AllottedAmount)
		}
	})

	t.Run("concurrent decisions have one winner", func(t *testing.T) {
		budget := seedBudget(t, db, staff.ID, decimal.NewFromInt(100000))
		expense, _, err := svc.Submit(ctx, newExpenseInput(budget.ID, category.ID, 20000), staff)
		if err != nil {
			t.Fatalf("submit: %v", err)
		}

		decisions := []models.DecideExpense{
			{Status: models.ExpenseStatusApproved},
			{Status: models.ExpenseStatusRejected},
		}
		var wg sync.WaitGroup
		results := make([]error, len(decisions))
		for i := range decisions {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, _, results[i] = svc.Decide(ctx, expense.ID, decisions[i], hod)
			}(i)
		}
		wg.Wait()

		successes := 0
		for _, err := range results {
			if err == nil {
				successes++
				continue
			}
			var stateErr *utils.InvalidStateError
			if !errors.As(err, &stateErr) {
				t.Fatalf("losing decision got %v, want InvalidStateError", err)
			}
		}
		if successes != 1 {
			t.Fatalf("%d decisions succeeded, want exactly 1", successes)
		}

		final, err := models.GetExpense(db, expense.ID)
		if err != nil {
			t.Fatalf("GetExpense: %v", err)
		}
		if final.Status == models.ExpenseStatusPending {
			t.Fatalf("expense still PENDING after a successful decision")
		}

		// Only the winner audits; the loser must not record a decision that
		// did not apply.
		logs, err := models.QueryAuditLogs(db, "Expense", expense.ID, 0)
		if err != nil {
			t.Fatalf("QueryAuditLogs: %v", err)
		}
		approvals := 0
		for _, row := range logs {
			if row.Action == string(models.AuditActionApprove) {
				approvals++
			}
		}
		if approvals != 1 {
			t.Fatalf("%d decision audit rows, want exactly 1", approvals)
		}
	})
}

func newExpenseInput(budgetId, categoryId int, amount int64) models.NewExpense {
	return models.NewExpense{
		BudgetId:        budgetId,
		CategoryId:      categoryId,
		VendorName:      "Integration Vendor",
		Amount:          decimal.NewFromInt(amount),
		TransactionDate: time.Now(),
	}
}

func seedUser(t *testing.T, db *gorm.DB, email string, role models.UserRole, department string) auth.Principal {
	t.Helper()
	active := true
	user := models.User{
		Name:       "Test " + string(role),
		Email:      email,
		Password:   "not-a-real-hash",
		Role:       role,
		Department: department,
		IsActive:   &active,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user %s: %v", email, err)
	}
	return auth.Principal{ID: user.ID, Role: role, Department: department}
}

func seedCategory(t *testing.T, db *gorm.DB, name string) *models.Category {
	t.Helper()
	category := models.Category{Name: fmt.Sprintf("%s-%d", name, time.Now().UnixNano())}
	if err := db.Create(&category).Error; err != nil {
		t.Fatalf("seed category: %v", err)
	}
	return &category
}

func seedBudget(t *testing.T, db *gorm.DB, createdBy int, allotted decimal.Decimal) *models.Budget {
	t.Helper()
	budget := models.Budget{
		Title:          fmt.Sprintf("Integration Budget %d", time.Now().UnixNano()),
		FiscalYear:     "2025-2026",
		Department:     "Science",
		ProposedAmount: allotted,
		AllottedAmount: allotted,
		Status:         models.BudgetStatusActive,
		CreatedBy:      createdBy,
	}
	if err := db.Create(&budget).Error; err != nil {
		t.Fatalf("seed budget: %v", err)
	}
	return &budget
}

func countBudgetExpenses(t *testing.T, db *gorm.DB, budgetId int) int64 {
	t.Helper()
	var count int64
	if err := db.Model(&models.Expense{}).Where("budget_id = ?", budgetId).Count(&count).Error; err != nil {
		t.Fatalf("count expenses: %v", err)
	}
	return count
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("budget-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=budget_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	// Example: "127.0.0.1:49154\n"
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
