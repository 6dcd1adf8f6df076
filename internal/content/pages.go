// Package content holds the site page blocks indexed by knowledge sync and
// the conversion of CMS markup to plain text.
package content

// Page is one indexable block of site copy.
type Page struct {
	SourceID string
	Title    string
	Section  string // path segment under the site base URL
	Content  string
}

// Site sections the assistant may link to.
const (
	SectionPercorsi     = "percorsi"
	SectionServizi      = "servizi"
	SectionCommentarium = "commentarium"
	SectionChiSiamo     = "chi-siamo"
	SectionContatti     = "contatti"
)

// Sections lists the linkable site sections.
var Sections = []string{
	SectionPercorsi,
	SectionServizi,
	SectionCommentarium,
	SectionChiSiamo,
	SectionContatti,
}

// Pages returns the fixed page blocks in sync order.
func Pages() []Page {
	return []Page{
		{
			SourceID: "home-page",
			Title:    "Noscite - In digitali nova virtus",
			Section:  "",
			Content: "Noscite accompagna imprese e professionisti nella trasformazione digitale. " +
				"Uniamo formazione, consulenza strategica e sviluppo di soluzioni su misura " +
				"per rendere la tecnologia uno strumento di crescita sostenibile. " +
				"Lavoriamo con PMI, studi professionali ed enti che vogliono adottare " +
				"l'intelligenza artificiale e gli strumenti digitali in modo consapevole.",
		},
		{
			SourceID: "atheneum-page",
			Title:    "Atheneum - Percorsi formativi",
			Section:  SectionPercorsi,
			Content: "Atheneum è l'area formativa di Noscite. Offriamo percorsi formativi " +
				"sull'intelligenza artificiale generativa, sulla produttività digitale, " +
				"sulla sicurezza informatica e sulla gestione dei dati. I percorsi sono " +
				"disponibili in aula, online e in formato ibrido, con moduli base, " +
				"intermedi e avanzati. Ogni percorso include esercitazioni pratiche, " +
				"materiali di approfondimento e un attestato di partecipazione. " +
				"Realizziamo anche percorsi aziendali personalizzati, finanziabili " +
				"tramite i fondi interprofessionali.",
		},
		{
			SourceID: "servizi-page",
			Title:    "Servizi",
			Section:  SectionServizi,
			Content: "I servizi di Noscite comprendono consulenza per la trasformazione " +
				"digitale, analisi dei processi aziendali, progettazione e integrazione " +
				"di soluzioni basate sull'intelligenza artificiale, sviluppo di siti e " +
				"applicazioni web, automazione dei flussi di lavoro e affiancamento " +
				"nell'adozione di nuovi strumenti. Ogni progetto parte da un'analisi " +
				"gratuita delle esigenze e si conclude con un piano di adozione misurabile.",
		},
		{
			SourceID: "commentarium-page",
			Title:    "Commentarium",
			Section:  SectionCommentarium,
			Content: "Il Commentarium è il blog di Noscite: articoli, guide e riflessioni " +
				"su intelligenza artificiale, innovazione digitale, normativa e buone " +
				"pratiche per le imprese. I contenuti vengono aggiornati regolarmente " +
				"dal team e dagli esperti che collaborano con noi.",
		},
		{
			SourceID: "chi-siamo-page",
			Title:    "Chi siamo",
			Section:  SectionChiSiamo,
			Content: "Noscite nasce dall'incontro tra competenze tecnologiche e cultura " +
				"umanistica. Il nostro motto, In digitali nova virtus, esprime l'idea " +
				"che il digitale sia un'opportunità per coltivare nuove capacità. " +
				"Il team riunisce formatori, consulenti e sviluppatori con esperienza " +
				"pluriennale in progetti di innovazione per aziende e pubblica amministrazione.",
		},
		{
			SourceID: "contatti-page",
			Title:    "Contatti",
			Section:  SectionContatti,
			Content: "Puoi contattare Noscite compilando il modulo nella pagina Contatti " +
				"oppure scrivendo a info@noscite.it. Rispondiamo entro due giorni " +
				"lavorativi. Su richiesta organizziamo una call conoscitiva gratuita " +
				"per capire le tue esigenze di formazione o consulenza.",
		},
	}
}

// IsSection reports whether s is one of the linkable sections.
func IsSection(s string) bool {
	for _, section := range Sections {
		if section == s {
			return true
		}
	}
	return false
}
