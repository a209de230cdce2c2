package outreach

import (
	"fmt"
	"strings"
	"time"
)

const emailSystemPrompt = `Sei un copywriter B2B esperto che scrive cold email per conto di %s. %s.
Quando proponi date per una call usa date concrete e realistiche a partire da domani.
Non inserire MAI firma, saluti finali o nome del mittente nel body.
Rispondi ESCLUSIVAMENTE con JSON valido, senza testo aggiuntivo prima o dopo.`

const emailUserPrompt = `DATA CORRENTE: %s
%s
AZIENDA DESTINATARIA:
- Nome: %s
- Sito web: %s
- Luogo: %s
- Contenuto del sito (estratto):
---
%s
---

PRODOTTO/SERVIZIO DA PROPORRE:
- Nome: %s
- Descrizione: %s

OBIETTIVO:
Scrivere una cold email B2B di presentazione che:
1. Mostri che conosciamo la loro azienda (cita qualcosa di specifico dal loro sito)
2. Colleghi concretamente il prodotto alle loro esigenze
3. Proponga un passo successivo concreto (call conoscitiva, invio campioni, visita)

REGOLE:
- Massimo 120 parole nel body
- Tono professionale ma cordiale, da collega esperto e non da venditore
- Niente formule come "Mi permetto di contattarla", "Gentilissimo", "Egregio"
- NON inserire firma o saluti finali
- Chiudi il body proponendo una call con giorno e data specifici
- Scrivi in italiano

OUTPUT JSON:
{"subject": "oggetto breve, max 8 parole", "body": "testo completo senza firma", "hook": "frase personalizzata sul loro sito, una riga"}`

const defaultSender = "un'azienda italiana"

var (
	italianWeekdays = [...]string{"domenica", "lunedì", "martedì", "mercoledì", "giovedì", "venerdì", "sabato"}
	italianMonths   = [...]string{"gennaio", "febbraio", "marzo", "aprile", "maggio", "giugno",
		"luglio", "agosto", "settembre", "ottobre", "novembre", "dicembre"}
)

// dateContext renders t as "Oggi è giovedì 20 febbraio 2025, ore 09:30".
func dateContext(t time.Time) string {
	return fmt.Sprintf("Oggi è %s %d %s %d, ore %02d:%02d",
		italianWeekdays[t.Weekday()], t.Day(), italianMonths[t.Month()-1], t.Year(), t.Hour(), t.Minute())
}

type promptInput struct {
	now         time.Time
	sender      string
	senderAbout string
	company     string
	website     string
	location    string
	siteText    string
	productName string
	productDesc string
}

func buildSystemPrompt(in promptInput) string {
	sender := in.sender
	if sender == "" {
		sender = defaultSender
	}
	return fmt.Sprintf(emailSystemPrompt, sender, dateContext(in.now))
}

func buildUserPrompt(in promptInput) string {
	var about string
	if in.sender != "" {
		var b strings.Builder
		b.WriteString("\nCHI SIAMO (MITTENTE):\n")
		b.WriteString(in.sender)
		if in.senderAbout != "" {
			b.WriteString(" (referente: " + in.senderAbout + ")")
		}
		b.WriteString("\n")
		about = b.String()
	}
	return fmt.Sprintf(emailUserPrompt,
		dateContext(in.now), about,
		in.company, in.website, orNA(in.location), in.siteText,
		in.productName, orNA(in.productDesc),
	)
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/D"
	}
	return s
}
