package interfaces

// SiteConfig is the project file (ike.yaml) fetched once when the site
// shell starts. Only Sidebar drives rendering; the remaining fields feed
// the extractor and page defaults.
type SiteConfig struct {
	Package     string    `yaml:"package" json:"package"`
	Title       string    `yaml:"title" json:"title"`
	Description string    `yaml:"description" json:"description"`
	Sidebar     []Section `yaml:"sidebar" json:"sidebar"`
}

// Section groups sidebar links under an optional heading.
type Section struct {
	Heading string `yaml:"heading" json:"heading"`
	Links   []Link `yaml:"links" json:"links"`
}

// Link is a single sidebar entry.
type Link struct {
	Href  string `yaml:"href" json:"href"`
	Title string `yaml:"title" json:"title"`
}
