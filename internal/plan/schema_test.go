package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validPostsJSON = `[
  {
    "publishDate": "2026-09-01",
    "socialNetwork": "telegram",
    "rubric": "Новости",
    "title": "Запуск",
    "content": "Сегодня мы запускаем новый продукт...",
    "hashtags": "#запуск #новости"
  },
  {
    "publishDate": "2026-09-03",
    "socialNetwork": "vk",
    "rubric": "Советы",
    "title": "Пять советов",
    "content": "Делимся пятью советами...",
    "hashtags": "#советы"
  }
]`

func TestParseGeneratedPosts(t *testing.T) {
	posts, err := ParseGeneratedPosts(validPostsJSON)
	require.NoError(t, err)
	require.Len(t, posts, 2)

	assert.Equal(t, "2026-09-01", posts[0].PublishDate)
	assert.Equal(t, "telegram", posts[0].SocialNetwork)
	assert.Equal(t, "Новости", posts[0].Rubric)
	assert.Equal(t, "vk", posts[1].SocialNetwork)
}

func TestParseGeneratedPostsCodeFenced(t *testing.T) {
	fenced := "```json\n" + validPostsJSON + "\n```"

	posts, err := ParseGeneratedPosts(fenced)
	require.NoError(t, err)
	assert.Len(t, posts, 2)
}

func TestParseGeneratedPostsSurroundingProse(t *testing.T) {
	wrapped := "Вот ваш контент-план:\n" + validPostsJSON + "\nНадеюсь, это поможет!"

	posts, err := ParseGeneratedPosts(wrapped)
	require.NoError(t, err)
	assert.Len(t, posts, 2)
}

func TestParseGeneratedPostsInvalidJSON(t *testing.T) {
	_, err := ParseGeneratedPosts("это не JSON вообще")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not valid JSON")
}

func TestParseGeneratedPostsMissingField(t *testing.T) {
	_, err := ParseGeneratedPosts(`[{"publishDate": "2026-09-01", "socialNetwork": "telegram"}]`)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "schema validation")
}

func TestParseGeneratedPostsEmptyArray(t *testing.T) {
	_, err := ParseGeneratedPosts(`[]`)
	assert.Error(t, err)
}

func TestParseGeneratedPostsBadDateFormat(t *testing.T) {
	_, err := ParseGeneratedPosts(`[{
		"publishDate": "01.09.2026",
		"socialNetwork": "telegram",
		"rubric": "Новости",
		"title": "t",
		"content": "c",
		"hashtags": ""
	}]`)
	assert.Error(t, err)
}

func TestParseGeneratedPostsObjectInsteadOfArray(t *testing.T) {
	_, err := ParseGeneratedPosts(`{"posts": []}`)
	assert.Error(t, err)
}
