package ports

type ExportItem struct {
	Key         string
	SourceText  string
	Translation string
	Comment     string
	List        []string // set for <li> lists; Key is then the list's tag
}

type Exporter interface {
	Format() string
	Extension() string
	Export(language string, items []ExportItem) ([]byte, error)
}
