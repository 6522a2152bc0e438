package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/noah-isme/campus-admissions-api/internal/models"
	"github.com/noah-isme/campus-admissions-api/internal/repository"
	"github.com/noah-isme/campus-admissions-api/internal/service"
	"github.com/noah-isme/campus-admissions-api/internal/workflow"
	"github.com/noah-isme/campus-admissions-api/pkg/config"
	"github.com/noah-isme/campus-admissions-api/pkg/database"
	"github.com/noah-isme/campus-admissions-api/pkg/logger"
)

type enrollmentLister interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
}

type ledgerReader interface {
	ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.EnrollmentStep, error)
}

type ledgerRepairer interface {
	Repair(ctx context.Context, enrollmentID string) (int, error)
}

type finding struct {
	EnrollmentID string
	Student      string
	Missing      []int
	Repaired     int
	Err          error
}

func main() {
	var (
		fix     bool
		timeout time.Duration
	)
	flag.BoolVar(&fix, "fix", false, "Insert missing ledger entries")
	flag.DurationVar(&timeout, "timeout", 5*time.Minute, "Overall run timeout")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer db.Close()

	steps := repository.NewEnrollmentStepRepository(db)
	var repairer ledgerRepairer
	if fix {
		repairer = service.NewLedgerRepairService(steps, nil, logr, service.LedgerRepairConfig{})
	}

	findings, err := checkLedgers(ctx, repository.NewEnrollmentRepository(db), steps, repairer)
	if err != nil {
		log.Fatalf("ledger check failed: %v", err)
	}

	printReport(os.Stdout, findings, fix)
	if unresolved(findings, fix) > 0 {
		os.Exit(1)
	}
}

func checkLedgers(ctx context.Context, enrollments enrollmentLister, steps ledgerReader, repairer ledgerRepairer) ([]finding, error) {
	var findings []finding
	filter := models.EnrollmentFilter{Page: 1, PageSize: 100}
	for {
		items, total, err := enrollments.List(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("list enrollments page %d: %w", filter.Page, err)
		}
		for _, item := range items {
			ledger, err := steps.ListByEnrollment(ctx, item.ID)
			if err != nil {
				findings = append(findings, finding{EnrollmentID: item.ID, Student: item.StudentName, Err: err})
				continue
			}
			if workflow.LedgerComplete(ledger) {
				continue
			}
			f := finding{EnrollmentID: item.ID, Student: item.StudentName, Missing: workflow.MissingStages(ledger)}
			if repairer != nil {
				f.Repaired, f.Err = repairer.Repair(ctx, item.ID)
			}
			findings = append(findings, f)
		}
		if len(items) == 0 || filter.Page*filter.PageSize >= total {
			return findings, nil
		}
		filter.Page++
	}
}

func unresolved(findings []finding, fix bool) int {
	n := 0
	for _, f := range findings {
		if f.Err != nil || !fix || f.Repaired < len(f.Missing) {
			n++
		}
	}
	return n
}

func printReport(w io.Writer, findings []finding, fix bool) {
	fmt.Fprintln(w, "Ledger Check Report")
	fmt.Fprintln(w, "===================")
	for _, f := range findings {
		status := "MISSING"
		switch {
		case f.Err != nil:
			status = "ERROR"
		case fix && f.Repaired == len(f.Missing):
			status = "REPAIRED"
		}
		fmt.Fprintf(w, "[%s] %s (%s)\n", status, f.EnrollmentID, f.Student)
		if len(f.Missing) > 0 {
			fmt.Fprintf(w, "  Missing steps: %v\n", f.Missing)
		}
		if f.Err != nil {
			fmt.Fprintf(w, "  Error: %v\n", f.Err)
		}
	}
	fmt.Fprintf(w, "Incomplete ledgers: %d, Unresolved: %d\n", len(findings), unresolved(findings, fix))
}
