package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nyumbani/rentmatch/internal/domain"
)

var firstNames = []string{
	"Jane", "John", "Mary", "Peter", "Grace", "Samuel", "Faith", "David",
	"Esther", "Brian", "Mercy", "Kevin",
}

var lastNames = []string{
	"Doe", "Kamau", "Wanjiku", "Otieno", "Mwangi", "Achieng", "Njoroge",
	"Kiprotich", "Muthoni", "Omondi", "Chebet", "Mutua",
}

func main() {
	rng := rand.New(rand.NewSource(42))
	baseDir := findTestdataDir()

	tenants := generateTenants(rng)
	writeTenants(baseDir, tenants)
	writeStatement(baseDir, tenants, rng)
}

func generateTenants(rng *rand.Rand) []domain.TenantCandidate {
	tenants := make([]domain.TenantCandidate, len(firstNames))
	for i := range firstNames {
		rent := decimal.NewFromInt(int64(5000 + 1000*rng.Intn(20)))
		tenants[i] = domain.TenantCandidate{
			TenantID:           fmt.Sprintf("TEN-%03d", i+1),
			DisplayName:        firstNames[i] + " " + lastNames[i],
			Phone:              fmt.Sprintf("07%08d", rng.Intn(100000000)),
			ExpectedRentAmount: &rent,
			PropertyRef:        fmt.Sprintf("NYB-%c%d", 'A'+i%3, i%8+1),
		}
	}
	return tenants
}

func writeTenants(baseDir string, tenants []domain.TenantCandidate) {
	data, err := json.MarshalIndent(tenants, "", "  ")
	if err != nil {
		panic(err)
	}
	path := filepath.Join(baseDir, "tenants.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		panic(err)
	}
	fmt.Printf("wrote %d tenants to %s\n", len(tenants), path)
}

func writeStatement(baseDir string, tenants []domain.TenantCandidate, rng *rand.Rand) {
	path := filepath.Join(baseDir, "statement.csv")
	f, err := os.Create(path)
	if err != nil {
		panic(err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"Receipt No.", "Completion Time", "Details", "Transaction Status",
		"Paid In", "Withdrawn", "Balance",
	}
	if err := w.Write(header); err != nil {
		panic(err)
	}

	start := time.Date(2024, 12, 1, 6, 0, 0, 0, time.UTC)
	balance := decimal.NewFromInt(25000)
	rows := 0

	// Credits: most tenants pay exact rent, a few pay off by a bit, a few
	// pay from a different number or with a mangled name.
	for i, t := range tenants {
		when := start.Add(time.Duration(rng.Intn(14*24)) * time.Hour)
		amount := *t.ExpectedRentAmount
		switch i % 4 {
		case 1:
			amount = amount.Add(decimal.NewFromInt(int64(rng.Intn(90))))
		case 3:
			amount = amount.Sub(decimal.NewFromInt(int64(150 + rng.Intn(200))))
		}

		phone := t.Phone
		name := strings.ToUpper(t.DisplayName)
		if i%5 == 4 {
			phone = fmt.Sprintf("07%08d", rng.Intn(100000000))
		}
		if i%6 == 5 {
			name = strings.Fields(name)[0]
		}

		balance = balance.Add(amount)
		row := []string{
			fmt.Sprintf("SBK%d%04d", when.Day(), rng.Intn(10000)),
			when.Format("02/01/2006 15:04"),
			fmt.Sprintf("Received from %s %s", name, phone),
			"Completed",
			amount.StringFixed(2),
			"0.00",
			balance.StringFixed(2),
		}
		if err := w.Write(row); err != nil {
			panic(err)
		}
		rows++
	}

	// Debits: outgoing transfers and charges, never matching candidates.
	for i := 0; i < 6; i++ {
		when := start.Add(time.Duration(rng.Intn(14*24)) * time.Hour)
		amount := decimal.NewFromInt(int64(200 + rng.Intn(3000)))
		balance = balance.Sub(amount)
		row := []string{
			fmt.Sprintf("SBK%d%04d", when.Day(), rng.Intn(10000)),
			when.Format("02/01/2006 15:04"),
			fmt.Sprintf("Customer transfer to 07%08d", rng.Intn(100000000)),
			"Completed",
			"0.00",
			amount.Neg().StringFixed(2),
			balance.StringFixed(2),
		}
		if err := w.Write(row); err != nil {
			panic(err)
		}
		rows++
	}

	// Two malformed rows the parser must skip and count.
	if err := w.Write([]string{"", "13/12/2024 09:15", "Received from NOBODY", "Completed", "100.00", "0.00", "0.00"}); err != nil {
		panic(err)
	}
	if err := w.Write([]string{"SBKBAD001", "not-a-date", "Received from GHOST", "Completed", "abc", "0.00", "0.00"}); err != nil {
		panic(err)
	}

	fmt.Printf("wrote %d statement rows (plus 2 malformed) to %s\n", rows, path)
}

func findTestdataDir() string {
	candidates := []string{"testdata", "..", "."}
	for _, c := range candidates {
		if info, err := os.Stat(filepath.Join(c, "generate")); err == nil && info.IsDir() {
			return c
		}
	}
	return "testdata"
}
