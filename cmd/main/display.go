package main

import (
	"fmt"
	"strings"

	"alkoteka/exporter/internal/domain"
)

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// displayProduct prints a human-readable summary of one fetched record.
// Optional sub-structures may be absent and fall back to placeholders.
func displayProduct(p *domain.Product) {
	catalog := "Без категории"
	category := "Без подкатегории"
	if p.Category != nil {
		if p.Category.Name != "" {
			category = p.Category.Name
		}
		if p.Category.Parent != nil && p.Category.Parent.Name != "" {
			catalog = p.Category.Parent.Name
		}
	}

	fmt.Printf("🛒 UUID: %s\n", orNA(p.UUID))
	fmt.Printf("🛒 Name: %s\n", orNA(p.Name))
	fmt.Printf("🛒 SubName: %s\n", orNA(p.Subname))
	fmt.Printf("🧷 Каталог: %s\n", catalog)
	fmt.Printf("🧷 Категория: %s\n", category)
	fmt.Printf("🎨 Цвет: %s\n", orNA(p.Label(domain.FilterColor)))
	fmt.Printf("🍬 Сахар: %s\n", orNA(p.Label(domain.FilterSugar)))
	fmt.Printf("🍾 Объём: %s\n", orNA(p.Label(domain.FilterVolume)))
	fmt.Printf("💰 Цена: %.2f ₽\n", p.Price)
	fmt.Printf("🌐 Ссылка: %s\n", p.ProductURL)
	fmt.Printf("🖼️ Изображение: %s\n", p.ImageURL)
	fmt.Println(strings.Repeat("-", 60))
}
