package content

var quickBodies = []string{
	"Источники в клубе сообщают о позитивных изменениях в команде {team}.",
	"Эксперты отмечают высокий уровень подготовки игроков {team}.",
	"Болельщики {team} выражают поддержку команде перед важными матчами.",
	"Тренерский штаб {team} работает над улучшением игровых показателей.",
	"Статистика показывает рост популярности {team} среди фанатов.",
}

func quick(title string) Template {
	return Template{Title: title, Bodies: quickBodies, Tags: []string{"срочно"}, Importance: 1}
}

const venueLine = " Матч проходил на стадионе {stadium} в городе {city}."

var templates = map[Kind][]Template{
	Quick: {
		quick("🔥 {team} готовится к решающему матчу - эксклюзивные кадры с тренировки"),
		quick("⚡ {player} показал феноменальную форму на сегодняшней тренировке"),
		quick("📈 {team} демонстрирует впечатляющую статистику в текущем сезоне"),
		quick("🏆 Тренер {team} раскрыл секретную тактику перед важным матчем"),
		quick("💪 {player} полностью восстановился и готов к возвращению на поле"),
		quick("📊 Аналитики прогнозируют рост позиций {team} в турнирной таблице"),
		quick("🎯 {team} активно работает над усилением состава в зимнее окно"),
		quick("⭐ {player} получил особое признание от болельщиков и экспертов"),
		quick("🔄 {team} меняет игровую схему для достижения лучших результатов"),
		quick("📢 Официальное заявление руководства {team} о планах на сезон"),
	},
	Full: {
		{
			Name:  "match_report",
			Title: "{team} одержал убедительную победу со счетом {score} над {opponent}",
			Body: "В напряженном матче турнира «{tournament}» команда {team} продемонстрировала отличную игру, " +
				"обыграв {opponent} со счетом {score}. Ключевую роль в победе сыграл {player}, который {achievement}. " +
				"Тренер команды отметил высокий уровень подготовки игроков и их стремление к победе." + venueLine,
			Tags: []string{"матч", "победа", "результат"},
		},
		{
			Name:  "record",
			Title: "{player} установил новый рекорд, забив {goals} гола в матче против {opponent}",
			Body: "Звездный игрок {team} {player} вошел в историю саудовского футбола, установив новый рекорд " +
				"результативности. В матче против {opponent} он забил {goals} гола, продемонстрировав исключительное " +
				"мастерство. Болельщики устроили овацию, а тренерский штаб выразил гордость за достижения игрока." + venueLine,
			Tags: []string{"рекорд", "голы", "игрок"},
		},
		{
			Name:  "transfer",
			Title: "{team2} объявил о трансфере {player} за {amount} миллионов долларов",
			Body: "Руководство {team2} официально подтвердило подписание контракта с {player}. Сумма трансфера " +
				"составила {amount} миллионов долларов, что делает его одним из самых дорогих в истории саудовского " +
				"футбола. Новый игрок уже приступил к тренировкам и готов дебютировать в ближайшем матче.",
			Tags: []string{"трансфер", "подписание", "новичок"},
		},
		{
			Name:  "tactics",
			Title: "Тренер {team} представил новую тактическую схему {formation} перед стартом сезона",
			Body: "Главный тренер {team} провел пресс-конференцию, на которой представил обновленную тактическую " +
				"схему {formation}. Новая система игры направлена на усиление атакующих действий и улучшение контроля " +
				"мяча. Игроки положительно отреагировали на изменения и готовы применить новую тактику в официальных матчах.",
			Tags: []string{"тактика", "тренер", "стратегия"},
		},
		{
			Name:  "table_position",
			Title: "{team} поднялся на {position} место в турнирной таблице после серии побед",
			Body: "Благодаря впечатляющей серии из {wins} побед подряд {team} значительно улучшил свои позиции " +
				"в турнирной таблице. Команда теперь занимает {position} место и имеет реальные шансы на попадание " +
				"в азиатские кубки. Ключевую роль в успехе сыграли {player} и слаженная работа всей команды.",
			Tags: []string{"таблица", "позиция", "успех"},
		},
	},
	Preview: {
		{
			Name:  "preview_analysis",
			Title: "🎯 Анализ матча: {team} vs {opponent}",
			Body: "Турнир «{tournament}». Хозяева из {city} подходят к игре после {wins} побед в последних матчах. " +
				"Ключевой игрок встречи, по мнению экспертов, {player}. " +
				"Стадион: {stadium}. Прямая трансляция: {channel}.",
			Tags: []string{"превью", "анализ"},
		},
		{
			Name:  "preview_round",
			Title: "⚽ Превью тура: {team} принимает {opponent}",
			Body: "{team} занимает {position} место и рассчитывает закрепить успех на своем поле. " +
				"Гости намерены навязать борьбу с первых минут. Смотрите матч на {channel}.",
			Tags: []string{"превью", "тур"},
		},
	},
	Result: {
		{
			Name:  "result_report",
			Title: "⚽ Полный отчет: {team} {score} {opponent}",
			Body: "Решающий эпизод случился на {minute}-й минуте, когда {player} {achievement}. " +
				"Владение мячом составило {possession}% в пользу хозяев. Матч прошел на стадионе {stadium}.",
			Tags: []string{"отчет", "результат"},
		},
		{
			Name:  "result_review",
			Title: "🏆 Детальный разбор: {team} {score} {opponent}",
			Body: "Героем встречи стал {player}, получивший оценку {rating}. " +
				"Тренер {team} отметил дисциплину команды и игру по схеме {formation}.",
			Tags: []string{"разбор", "результат"},
		},
	},
	Spotlight: {
		{
			Name:  "star_of_week",
			Title: "⭐ Звезда недели: {player} ({team})",
			Body: "Матчи: {matches}. Голы: {season_goals}. Передачи: {assists}. Рейтинг: {rating}/10. " +
				"В последней игре {player} {achievement}.",
			Tags: []string{"звезда", "игрок"},
		},
		{
			Name:  "player_profile",
			Title: "🌟 Профиль игрока: {player}",
			Body: "Игрок {team} провел {matches} матчей в сезоне и забил {season_goals} голов. " +
				"Болельщики называют его одним из лидеров турнира «{tournament}».",
			Tags: []string{"профиль", "игрок"},
		},
	},
	Transfer: {
		{
			Name:  "transfer_deal",
			Title: "💰 Трансферные новости: {player} переходит в {team2}",
			Body: "Сумма сделки: {amount} млн долларов, контракт рассчитан на {years} года. " +
				"Прежний клуб игрока, {team}, подтвердил договоренность.",
			Tags: []string{"трансфер", "сделка"},
		},
		{
			Name:  "transfer_window",
			Title: "🔄 Трансферное окно: {team2} готовит предложение за {player}",
			Body: "По данным источников, {team2} готов заплатить до {amount} млн долларов. " +
				"Переговоры могут завершиться в ближайшие дни.",
			Tags: []string{"трансфер", "слухи"},
		},
	},
	Tactical: {
		{
			Name:  "tactical_breakdown",
			Title: "🧠 Тактический разбор: {team} против {opponent}",
			Body: "{team} сыграл по схеме {formation} и контролировал мяч {possession}% времени. " +
				"Ключевые действия в атаке строились через {player}.",
			Tags: []string{"тактика", "анализ"},
		},
		{
			Name:  "tactical_trends",
			Title: "🔍 Глубокий анализ: тренды {team}",
			Body: "За последние {matches} матчей команда одержала {wins} побед. " +
				"Тренерский штаб делает ставку на прессинг и быстрые переходы.",
			Tags: []string{"тактика", "тренды"},
		},
	},
}

// Templates returns the pool of a kind.
func Templates(kind Kind) []Template { return templates[kind] }

var fixtureTitles = []string{
	"🔥 Центральный матч тура: {home} принимает {away}",
	"⚽ Принципиальное дерби: {home} vs {away}",
	"🏆 Битва за очки: {home} встречается с {away}",
	"💥 Горячий матч: {home} против {away}",
	"🎯 Ключевая встреча: {home} - {away}",
}
