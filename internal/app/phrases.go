package app

// QuickPhrases are the canned requests offered by the phrase palette.
var QuickPhrases = []string{
	"Напомни мне о задаче позже",
	"Составь список дел на сегодня",
	"Покажи мои встречи на сегодня",
	"Добавь событие в календарь",
	"Расскажи интересный факт",
	"Поставь будильник на 8:00",
	"Сделай заметку: Позвонить клиенту",
	"Какая сейчас погода?",
	"Включи расслабляющую музыку",
	"Сгенерируй идею для поста",
	"Помоги с переводом текста",
	"Напомни выпить воды",
	"Что нового в мире технологий?",
	"Сделай расчет расходов за месяц",
}
