package model

// Редактируемый контент сайта хранится секциями в таблице site_content
// (ключ секции → JSON). Структуры ниже — формат этих секций.

// Секции контента.
const (
	ContentSectionContact = "contact"
	ContentSectionSocial  = "social"
	ContentSectionSeo     = "seo"
)

// ContactInfo — контактные данные и тексты контактного блока.
type ContactInfo struct {
	ContactTitle       string `json:"contact_title"`
	ContactSubtitle    string `json:"contact_subtitle"`
	ShortDescription   string `json:"short_description"`
	FooterContactText  string `json:"footer_contact_text"`
	Email              string `json:"email"`
	PhoneNumber        string `json:"phone_number"`
	WhatsappURL        string `json:"whatsapp_url"`
	MapAddressString   string `json:"map_address_string"`
	GoogleMapsEmbedURL string `json:"google_maps_embed_url"`
}

// SocialLinks — ссылки на соцсети для футера и контактного блока.
type SocialLinks struct {
	FacebookURL  string `json:"facebook_url"`
	InstagramURL string `json:"instagram_url"`
	LinkedinURL  string `json:"linkedin_url"`
	YoutubeURL   string `json:"youtube_url"`
}

// SeoText — тексты для SEO: title, description и блок "о нас".
type SeoText struct {
	PageTitle       string `json:"page_title"`
	MetaDescription string `json:"meta_description"`
	AboutHeading    string `json:"about_heading"`
	AboutBody       string `json:"about_body"`
}

// KnownContentSection проверяет, что ключ секции из URL нам известен.
func KnownContentSection(section string) bool {
	switch section {
	case ContentSectionContact, ContentSectionSocial, ContentSectionSeo:
		return true
	}
	return false
}
