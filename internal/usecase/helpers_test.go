package usecase

import "github.com/crwatch/backend/internal/domain"

func company(id, name, website string) domain.Entry {
	return domain.Entry{Type: domain.EntityCompany, PageID: id, PageName: name, Website: website}
}

func relationFixture() []domain.Entry {
	return []domain.Entry{
		company("company-acme", "Acme", "https://acme.com/"),
		{Type: domain.EntityProductLine, PageID: "pl-acme-home", PageName: "Acme Home", Company: "Acme"},
		{Type: domain.EntityProduct, PageID: "product-acme-cam", PageName: "Acme Cam", Company: "Acme", ProductLine: "Acme Home"},
		{
			Type:        domain.EntityIncident,
			PageID:      "incident-acme-breach",
			PageName:    "Acme Breach 2025",
			Company:     "Acme",
			Product:     "Acme Cam",
			ProductLine: "Acme Home",
		},
		company("company-other", "OtherCorp", "https://other.example/"),
	}
}

func ecommerceFixture() []domain.Entry {
	return []domain.Entry{
		company("company-amazon", "Amazon", "https://amazon.com.au/"),
		company("company-apple", "Apple", "https://apple.com/"),
		{Type: domain.EntityProductLine, PageID: "pl-airpods", PageName: "AirPods", Company: "Apple"},
		{
			Type:        domain.EntityIncident,
			PageID:      "incident-apple-repair",
			PageName:    "Apple anti-repair practices",
			Company:     "Apple",
			ProductLine: "AirPods",
		},
	}
}

func airPodsPage() domain.PageContext {
	return domain.PageContext{
		URL:      "https://www.amazon.com.au/Apple-MXP63ZA-A-AirPods-4/dp/B0DGJ2X3QV",
		Hostname: "www.amazon.com.au",
		Title:    "Apple AirPods 4 : Amazon.com.au: Electronics",
		Meta: map[string]string{
			domain.MetaDescription: "Apple AirPods 4 : Amazon.com.au: Electronics",
		},
	}
}

func entryIDs(entries []domain.Entry) []string {
	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		ids = append(ids, entry.ID())
	}
	return ids
}

func matchIDs(matches []domain.EntryMatch) []string {
	ids := make([]string, 0, len(matches))
	for _, match := range matches {
		ids = append(ids, match.Entry.ID())
	}
	return ids
}

func keySet(entries []domain.Entry) map[string]bool {
	keys := make(map[string]bool, len(entries))
	for _, entry := range entries {
		keys[entry.Key()] = true
	}
	return keys
}
