package models

// DefaultRubrics returns the rubric set created for every new user at
// registration. Quotas sum to 20 posts per month.
func DefaultRubrics() []Rubric {
	return []Rubric{
		{Name: "Образование", Description: "Контент, который учит, объясняет, даёт лайфхаки.", PostsPerMonth: 6, SortOrder: 0, IsActive: true},
		{Name: "Вдохновение + Мотивация", Description: "Истории клиентов, кейсы трансформации, социальное доказательство.", PostsPerMonth: 2, SortOrder: 1, IsActive: true},
		{Name: "Развлечение", Description: "Контент, который не учит и не продаёт — просто нравится, смешит, занимает.", PostsPerMonth: 4, SortOrder: 2, IsActive: true},
		{Name: "Активность сообщества", Description: "Контент, который создаёт диалог, включает аудиторию.", PostsPerMonth: 2, SortOrder: 3, IsActive: true},
		{Name: "Прямые продажи", Description: "Контент, который явно нацелен на покупку.", PostsPerMonth: 4, SortOrder: 4, IsActive: true},
		{Name: "Бренд и ценности", Description: "Миссия, история, как вы работаете, почему вы это делаете.", PostsPerMonth: 2, SortOrder: 5, IsActive: true},
	}
}

// SupportedNetworks returns the static social network registry rows.
func SupportedNetworks() []SocialNetwork {
	return []SocialNetwork{
		{Slug: "telegram", Name: "Telegram", Color: "#26A5E4", IconName: "simple-icons:telegram"},
		{Slug: "instagram", Name: "Instagram", Color: "#E4405F", IconName: "simple-icons:instagram"},
		{Slug: "vk", Name: "VK", Color: "#0077FF", IconName: "simple-icons:vk"},
		{Slug: "threads", Name: "Threads", Color: "#000000", IconName: "simple-icons:threads"},
	}
}
