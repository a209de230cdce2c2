package scorer

import (
	"fmt"

	"github.com/sells-group/leadgen-cli/internal/model"
)

const evaluateSystemPrompt = `Sei un analista commerciale B2B. Valuti quanto un'azienda trovata online è un potenziale cliente per un prodotto. Rispondi solo con un oggetto JSON valido, senza testo prima o dopo.`

const evaluateUserPrompt = `PRODOTTO
Nome: %s
Descrizione: %s
Parole chiave: %s

AZIENDA
Nome: %s
Sito: %s
Località: %s

Testo estratto dal sito:
---
%s
---

Assegna un punteggio da 0 a 100 a ciascun criterio:
- sector_match (peso 40%%): l'azienda opera in un settore dove il prodotto serve?
- purchase_potential (peso 25%%): dimensione e bisogno reale di acquisto.
- complementarity (peso 20%%): i loro prodotti o servizi si integrano con il nostro?
- web_quality (peso 15%%): il sito è curato e l'azienda sembra strutturata?

Lo score finale è la media pesata. Sii severo: 0-15 fuori tema, 20-40 affinità vaga,
40-65 buona affinità, 65-85 forte affinità, oltre 85 solo per match quasi perfetti.

Formato:
{"score": <0-100>, "sector_match": <0-100>, "purchase_potential": <0-100>, "complementarity": <0-100>, "web_quality": <0-100>, "reason": "<massimo due frasi in italiano>"}`

func buildEvaluatePrompt(companyName, website, location string, product model.Product, siteText string) string {
	return fmt.Sprintf(evaluateUserPrompt,
		product.Name,
		orNA(product.Summary()),
		orNA(product.TargetKeywords),
		companyName,
		website,
		orNA(location),
		siteText,
	)
}

func orNA(s string) string {
	if s == "" {
		return "N/D"
	}
	return s
}
