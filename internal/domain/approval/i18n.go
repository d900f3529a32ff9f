package approval

var reasonLabels = map[string]string{
	ReasonItemOld:           "Article trop ancien pour une suppression directe",
	ReasonNotCreator:        "Créé par un autre utilisateur",
	ReasonHighStock:         "Stock important",
	ReasonHighValue:         "Valeur élevée",
	ReasonCustomerHistory:   "Client avec un historique d'achats",
	ReasonCustomerDebt:      "Client avec une dette en cours",
	ReasonHighValueCustomer: "Client à forte valeur",
	ReasonHighValueSale:     "Vente de montant élevé",
	ReasonUnpaidDebt:        "Vente non soldée",
	ReasonLimitedRole:       "Rôle soumis à validation",
}

var typeLabels = map[ItemType]string{
	TypeProduct:    "Produit",
	TypeIngredient: "Ingrédient",
	TypeCustomer:   "Client",
	TypeSale:       "Vente",
}

// TranslateReasons maps reason codes to display strings. Unknown codes
// pass through unchanged.
func TranslateReasons(reasons []string) []string {
	out := make([]string, 0, len(reasons))
	for _, code := range reasons {
		if label, ok := reasonLabels[code]; ok {
			out = append(out, label)
			continue
		}
		out = append(out, code)
	}
	return out
}

func TypeLabel(t ItemType) string {
	if label, ok := typeLabels[t]; ok {
		return label
	}
	return string(t)
}
