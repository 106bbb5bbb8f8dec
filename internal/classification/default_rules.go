package classification

import "github.com/Veraticus/tally/internal/model"

// DefaultDefinition returns the built-in catalog.
func DefaultDefinition() Definition {
	savingsKeywords := []string{
		"savings", "saving", "spaarrekening", "spaar", "sparen", "emergency fund",
		"auto-save", "autosave", "round-up", "deposit account",
	}

	return Definition{
		CategoryRules:   DefaultCategoryRules(),
		SpecialRules:    DefaultSpecialRules(),
		SpecialPatterns: DefaultSpecialPatterns(),
		Savings: Detector{
			Tag:      model.TagSavings,
			Keywords: savingsKeywords,
			AccountPatterns: []string{
				`\bsavings?\s+(account|acct|pot|goal)\b`,
				`\b(easy|direct|vrij)\s+(savings|sparen)\b`,
			},
			SubcategoryWhitelist: []string{"savings", "savings deposit", "emergency fund", "savings goal"},
			LiteralCategories:    []string{"savings", "emergency fund"},
			Confidence:           0.9,
		},
		Transfers: Detector{
			Tag: model.TagTransfers,
			Keywords: []string{
				"transfer", "overboeking", "internal transfer", "own account", "between accounts",
				"xfer", "tfr", "tikkie", "sent to", "received from",
			},
			AccountPatterns: []string{
				`\bto\s+(my|own)\s+account\b`,
				`\b(from|to)\s+checking\b`,
			},
			SubcategoryWhitelist: []string{"internal transfer", "transfer", "own account", "payment request"},
			LiteralCategories:    []string{"transfers", "transfer"},
			Confidence:           0.85,
		},
		Investments: Detector{
			Tag: model.TagInvestments,
			Keywords: []string{
				"stock", "stocks", "shares", "etf", "index fund", "mutual fund", "bonds",
				"crypto", "bitcoin", "investment", "investing", "portfolio",
			},
			AccountPatterns: []string{
				`\bbrokerage\b`, `\bdegiro\b`, `\btrading\s*212\b`, `\binteractive\s+brokers\b`,
				`\bmeesman\b`, `\bbux\b`, `\bbinance\b`, `\bcoinbase\b`, `\bkraken\b`, `\bvanguard\b`,
			},
			PurchaseKeywords:     []string{"purchase", "buy", "bought", "order", "aankoop", "koop"},
			SubcategoryWhitelist: []string{"stock purchase", "etf purchase", "fund purchase", "crypto purchase"},
			Exclusions: &Exclusions{
				FeeKeywords:        []string{"fee", "fees", "commission", "cost", "costs", "kosten", "charge", "provisie", "service charge"},
				WithdrawalKeywords: []string{"withdrawal", "withdraw", "sale", "sell", "sold", "redemption", "verkoop", "opname", "payout"},
				TaxKeywords:        []string{"tax", "taxes", "withholding", "belasting", "bronbelasting", "dividend tax"},
				ExcludedAccounts:   []string{"bunq savings", "easy savings", "rabo spaarrekening", "ing spaarrekening", "savings account"},
				MinAmount:          DefaultMinInvestmentAmount,
			},
			Confidence: 0.85,
		},
		Income: Detector{
			Tag: model.TagIncome,
			Keywords: []string{
				"salary", "salaris", "wage", "wages", "payroll", "payslip", "loon",
				"dividend", "bonus", "pension", "pensioen", "interest", "rente", "freelance invoice",
			},
			Confidence: 0.9,
		},
	}
}

// DefaultCategoryRules returns the ordered category assignment rules.
func DefaultCategoryRules() []CategoryRule {
	return []CategoryRule{
		// Money movements first so merchant rules below cannot shadow them
		{Pattern: `\b(salary|salaris|payslip|payroll|wages?)\b`, Category: "Income", Subcategory: "Salary", Confidence: 0.95},
		{Pattern: `\b(dividend|interest|rente)\b`, Category: "Income", Subcategory: "Investment Income", Confidence: 0.85},
		{Pattern: `\b(savings?|spaarrekening|sparen|emergency fund)\b`, Category: "Savings", Subcategory: "Savings Deposit", Confidence: 0.9},
		{Pattern: `\b(stocks?|etf|shares|index fund)\s+(purchase|buy|order)\b`, Category: "Investments", Subcategory: "Stock Purchase", Confidence: 0.9},
		{Pattern: `\b(degiro|brokerage|trading\s*212|meesman|vanguard)\b`, Category: "Investments", Subcategory: "Brokerage", Confidence: 0.8},
		{Pattern: `\b(bitcoin|crypto|coinbase|binance|kraken)\b`, Category: "Investments", Subcategory: "Crypto", Confidence: 0.8},
		{Pattern: `\b(transfer|overboeking|xfer|tikkie)\b`, Category: "Transfers", Subcategory: "Internal Transfer", Confidence: 0.8},
		{Pattern: `\b(bank\s+fee|service\s+charge|commission|kosten)\b`, Category: "Financial", Subcategory: "Bank Fees", Confidence: 0.85},
		{Pattern: `\b(tax|belasting|belastingdienst)\b`, Category: "Financial", Subcategory: "Taxes", Confidence: 0.85},

		// Everyday spending
		{Pattern: `\b(albert\s*heijn|ah\s+to\s+go|jumbo|lidl|aldi|plus|dirk|spar|coop|tesco|carrefour)\b`, Category: "Food", Subcategory: "Groceries", Confidence: 0.9},
		{Pattern: `\b(restaurant|cafe|bistro|pizzeria|sushi|thuisbezorgd|deliveroo|uber\s*eats)\b`, Category: "Food", Subcategory: "Restaurants", Confidence: 0.85},
		{Pattern: `\b(ns\s+reizigers|ov-?chipkaart|gvb|ret|uber|bolt|taxi)\b`, Category: "Transport", Subcategory: "Public Transport", Confidence: 0.8},
		{Pattern: `\b(shell|bp|esso|total\s*energies|tinq|tango)\b`, Category: "Transport", Subcategory: "Fuel", Confidence: 0.85},
		{Pattern: `\b(rent|huur|mortgage|hypotheek)\b`, Category: "Housing", Subcategory: "Rent & Mortgage", Confidence: 0.9},
		{Pattern: `\b(vattenfall|eneco|essent|greenchoice|water|energie|energy)\b`, Category: "Housing", Subcategory: "Utilities", Confidence: 0.8},
		{Pattern: `\b(kpn|vodafone|t-mobile|odido|ziggo)\b`, Category: "Housing", Subcategory: "Telecom", Confidence: 0.85},
		{Pattern: `\b(insurance|verzekering|zilveren\s+kruis|cz|vgz|menzis)\b`, Category: "Insurance", Subcategory: "Insurance", Confidence: 0.85},
		{Pattern: `\b(apotheek|pharmacy|huisarts|dentist|tandarts|hospital|ziekenhuis)\b`, Category: "Health", Subcategory: "Healthcare", Confidence: 0.85},
		{Pattern: `\b(netflix|spotify|disney\+?|videoland|youtube\s+premium|icloud)\b`, Category: "Subscriptions", Subcategory: "Streaming", Confidence: 0.9},
		{Pattern: `\b(amazon|bol\.com|coolblue|zalando|ikea|action|hema)\b`, Category: "Shopping", Subcategory: "General", Confidence: 0.8},
		{Pattern: `\b(gym|basic-fit|sportschool|fitness)\b`, Category: "Leisure", Subcategory: "Sports", Confidence: 0.8},
	}
}

// DefaultSpecialRules returns deterministic rules for well-known reference formats.
func DefaultSpecialRules() []SpecialRule {
	return []SpecialRule{
		{
			Name:        "bunq auto-save",
			Pattern:     `^bunq\s+(auto[- ]?save|round[- ]?up)\b`,
			Tag:         model.TagSavings,
			Category:    "Savings",
			Subcategory: "Savings Deposit",
		},
		{
			Name:        "tikkie payment request",
			Pattern:     `^tikkie\s+id\s+\d{6,}`,
			Tag:         model.TagTransfers,
			Category:    "Transfers",
			Subcategory: "Payment Request",
		},
		{
			Name:        "sepa salary reference",
			Pattern:     `/TRTP/SEPA[^/]*/.*/REMI/.*\b(salaris|salary|loon)\b`,
			Tag:         model.TagIncome,
			Category:    "Income",
			Subcategory: "Salary",
		},
	}
}

// DefaultSpecialPatterns are reference formats worth learning from when they appear in a description.
func DefaultSpecialPatterns() []string {
	return []string{
		// IBAN in the Dutch layout
		`\b[A-Z]{2}\d{2}[A-Z]{4}\d{10}\b`,
		// SEPA structured remittance
		`/TRTP/[A-Z ]+`,
		`\bpaypal\s*\(europe\)`,
		// card terminal ids
		`\bterm(inal)?\s*[:#]?\s*[A-Z0-9]{6,}`,
		`\b(mandaat|mandate)\s*id\b`,
	}
}
