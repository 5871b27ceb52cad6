// Package main provides a CLI tool for seeding the database with demo data.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"pharmstock/internal/core/security"
	"pharmstock/internal/core/types"
	"pharmstock/internal/domain/catalogs/medicine"
	"pharmstock/internal/domain/catalogs/node"
	"pharmstock/internal/domain/stock"
	"pharmstock/internal/infrastructure/storage/postgres"
	"pharmstock/internal/infrastructure/storage/postgres/catalog_repo"
	"pharmstock/internal/infrastructure/storage/postgres/stock_repo"
	"pharmstock/pkg/logger"
	"pharmstock/pkg/numerator"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := security.WithUserID(context.Background(), "seed")

	// Connect to database
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	poolCfg := postgres.DefaultPoolConfig(dbURL)
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	txManager := postgres.NewTxManager(pool)
	num := numerator.New(pool)

	medicineService := medicine.NewService(catalog_repo.NewMedicineRepo(txManager), txManager, num)
	nodeService := node.NewService(catalog_repo.NewNodeRepo(txManager), txManager, num)
	stockService := stock.NewService(
		stock_repo.NewBatchRepo(txManager),
		stock_repo.NewMovementRepo(txManager),
		txManager,
	)

	medicines, err := seedMedicines(ctx, medicineService, log)
	if err != nil {
		log.Fatalw("failed to seed medicines", "error", err)
	}

	nodes, err := seedNodes(ctx, nodeService, log)
	if err != nil {
		log.Fatalw("failed to seed nodes", "error", err)
	}

	if os.Getenv("SEED_DEMO_STOCK") == "true" {
		if err := seedOpeningStock(ctx, stockService, medicines, nodes, log); err != nil {
			log.Fatalw("failed to seed opening stock", "error", err)
		}
	}

	log.Info("seeding completed")
}

type medicineSeed struct {
	sku      string
	name     string
	generic  string
	form     medicine.Form
	strength string
	cost     string
	price    string
	rx       bool
	minStock types.Quantity
}

func seedMedicines(ctx context.Context, svc *medicine.Service, log *logger.Logger) (map[string]*medicine.Medicine, error) {
	seeds := []medicineSeed{
		{"MED-0001", "Paracetamol 500mg", "paracetamol", medicine.FormTablet, "500mg", "0.05", "0.12", false, 500},
		{"MED-0002", "Amoxicillin 250mg", "amoxicillin", medicine.FormCapsule, "250mg", "0.18", "0.40", true, 300},
		{"MED-0003", "ORS Sachet", "oral rehydration salts", medicine.FormDrops, "20.5g", "0.22", "0.35", false, 200},
		{"MED-0004", "Ibuprofen Syrup", "ibuprofen", medicine.FormSyrup, "100mg/5ml", "0.95", "1.80", false, 100},
		{"MED-0005", "Ceftriaxone 1g", "ceftriaxone", medicine.FormInjection, "1g", "1.40", "2.60", true, 50},
	}

	result := make(map[string]*medicine.Medicine, len(seeds))
	for _, s := range seeds {
		if existing, err := svc.GetByCode(ctx, s.sku); err == nil {
			result[s.sku] = existing
			continue
		}

		m := medicine.NewMedicine(s.sku, s.name, s.form)
		generic, strength := s.generic, s.strength
		m.GenericName = &generic
		m.Strength = &strength
		m.UnitCost = types.MustMoney(s.cost)
		m.UnitPrice = types.MustMoney(s.price)
		m.RequiresPrescription = s.rx
		m.MinStockLevel = s.minStock

		if err := svc.Create(ctx, m); err != nil {
			return nil, fmt.Errorf("create medicine %s: %w", s.sku, err)
		}
		result[s.sku] = m
		log.Infow("medicine created", "sku", s.sku, "name", s.name)
	}
	return result, nil
}

type nodeSeed struct {
	code     string
	name     string
	nodeType node.NodeType
	region   string
}

func seedNodes(ctx context.Context, svc *node.Service, log *logger.Logger) (map[string]*node.Node, error) {
	seeds := []nodeSeed{
		{"NODE-0001", "Central Warehouse", node.TypeWarehouse, "central"},
		{"NODE-0002", "Northern Clinic", node.TypeClinic, "north"},
		{"NODE-0003", "Riverside Village Post", node.TypeVillage, "north"},
		{"NODE-0004", "Hillcrest Village Post", node.TypeVillage, "south"},
	}

	result := make(map[string]*node.Node, len(seeds))
	for _, s := range seeds {
		if existing, err := svc.GetByCode(ctx, s.code); err == nil {
			result[s.code] = existing
			continue
		}

		n := node.NewNode(s.code, s.name, s.nodeType)
		region := s.region
		n.Region = &region

		if err := svc.Create(ctx, n); err != nil {
			return nil, fmt.Errorf("create node %s: %w", s.code, err)
		}
		result[s.code] = n
		log.Infow("node created", "code", s.code, "name", s.name)
	}
	return result, nil
}

func seedOpeningStock(
	ctx context.Context,
	svc *stock.Service,
	medicines map[string]*medicine.Medicine,
	nodes map[string]*node.Node,
	log *logger.Logger,
) error {
	warehouse := nodes["NODE-0001"]
	now := time.Now().UTC()

	type intake struct {
		sku         string
		batchNumber string
		expiryDays  int
		quantity    types.Quantity
		cost        string
	}

	intakes := []intake{
		{"MED-0001", "PCM-2026-114", 540, 10000, "0.05"},
		{"MED-0002", "AMX-2026-031", 360, 4000, "0.18"},
		{"MED-0003", "ORS-2026-007", 720, 6000, "0.22"},
		{"MED-0004", "IBU-2026-052", 270, 800, "0.95"},
		{"MED-0005", "CFX-2026-019", 450, 600, "1.40"},
	}

	for _, in := range intakes {
		m := medicines[in.sku]
		batch, err := svc.Receive(ctx, stock.ReceiveInput{
			MedicineID:  m.ID,
			NodeID:      warehouse.ID,
			BatchNumber: in.batchNumber,
			ExpiryDate:  now.AddDate(0, 0, in.expiryDays),
			Quantity:    in.quantity,
			UnitCost:    types.MustMoney(in.cost),
			Reference:   "seed-opening-stock",
		})
		if err != nil {
			// Re-running the seeder hits the duplicate batch check; skip.
			log.Warnw("skipping intake", "batch", in.batchNumber, "error", err)
			continue
		}
		log.Infow("stock received", "batch", batch.BatchNumber, "quantity", in.quantity)
	}
	return nil
}
