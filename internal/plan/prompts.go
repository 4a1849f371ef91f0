package plan

import (
	"fmt"
	"strings"
	"time"

	"github.com/contentmachine/contentmachine/internal/models"
)

// ContentPlanPrompt requests a strict JSON array of post objects covering
// one month forward from the start date.
const ContentPlanPrompt = `Ты — профессиональный SMM-специалист и контент-стратег.
Создай подробный контент-план на основе следующих параметров:

Социальные сети: {socialNetworks}
Рубрики и количество постов в месяц:
{rubrics}

Частота: {postsPerWeek} постов в неделю
Дни публикаций: {publishDays}
Дата начала: {startDate}

Пожелания пользователя:
{wishes}

Для каждого поста укажи:
1. Дату публикации
2. Социальную сеть
3. Рубрику
4. Заголовок поста
5. Полный текст поста (не менее 200 символов)
6. Хештеги (5-10 штук)

Формат ответа — JSON массив объектов:
[
  {
    "publishDate": "YYYY-MM-DD",
    "socialNetwork": "telegram|instagram|vk|threads",
    "rubric": "Название рубрики",
    "title": "Заголовок",
    "content": "Полный текст поста...",
    "hashtags": "#хештег1 #хештег2 ..."
  }
]

Важно:
- Распредели посты равномерно по указанным дням
- Учитывай специфику каждой соцсети (длина текста, стиль)
- Контент должен быть разнообразным и вовлекающим
- Используй актуальные тренды и форматы
- Генерируй план на 1 месяц вперёд от даты начала
- Ответ должен содержать только JSON массив, без пояснений`

// ImprovePostPrompt rewrites a single post per the user's instructions.
const ImprovePostPrompt = `Ты — профессиональный копирайтер для социальных сетей.
Улучши следующий пост для {socialNetwork}:

Текущий текст:
{content}

Инструкции по улучшению:
{instructions}

Верни только улучшенный текст поста, без объяснений.`

// dayNames maps weekday indices (0 = Sunday) to Russian day names.
var dayNames = [7]string{"Воскресенье", "Понедельник", "Вторник", "Среда", "Четверг", "Пятница", "Суббота"}

// BuildContentPlanPrompt substitutes the plan configuration into the
// generation prompt template.
func BuildContentPlanPrompt(networks []models.SocialNetwork, rubrics []models.Rubric, cfg models.PlanConfig, startDate time.Time) string {
	networkNames := make([]string, 0, len(networks))
	for _, n := range networks {
		networkNames = append(networkNames, n.Name)
	}

	rubricLines := make([]string, 0, len(rubrics))
	for _, r := range rubrics {
		rubricLines = append(rubricLines, fmt.Sprintf("- %s: %d постов/мес", r.Name, r.PostsPerMonth))
	}

	days := make([]string, 0, len(cfg.PublishDays))
	for _, d := range cfg.PublishDays {
		if d >= 0 && d < len(dayNames) {
			days = append(days, dayNames[d])
		}
	}

	wishes := cfg.Wishes
	if wishes == "" {
		wishes = "Нет особых пожеланий"
	}

	replacer := strings.NewReplacer(
		"{socialNetworks}", strings.Join(networkNames, ", "),
		"{rubrics}", strings.Join(rubricLines, "\n"),
		"{postsPerWeek}", fmt.Sprint(cfg.PostsPerWeek),
		"{publishDays}", strings.Join(days, ", "),
		"{startDate}", startDate.Format("2006-01-02"),
		"{wishes}", wishes,
	)

	return replacer.Replace(ContentPlanPrompt)
}

// BuildImprovePostPrompt substitutes a post and instructions into the
// improvement prompt template.
func BuildImprovePostPrompt(socialNetwork, content, instructions string) string {
	replacer := strings.NewReplacer(
		"{socialNetwork}", socialNetwork,
		"{content}", content,
		"{instructions}", instructions,
	)
	return replacer.Replace(ImprovePostPrompt)
}
