package catalog

// Builtin returns the bundled Saudi Pro League data set. The slices are fresh
// copies on every call.
func Builtin() Data {
	return Data{
		Teams: []Team{
			{Name: "Аль-Хиляль", City: "Эр-Рияд", Founded: 1957, Stadium: "Стадион Короля Фахда"},
			{Name: "Аль-Насср", City: "Эр-Рияд", Founded: 1955, Stadium: "Стадион Мршуд"},
			{Name: "Аль-Иттихад", City: "Джидда", Founded: 1927, Stadium: "Стадион Короля Абдулазиза"},
			{Name: "Аль-Ахли", City: "Джидда", Founded: 1937, Stadium: "Стадион Короля Абдуллы"},
			{Name: "Аль-Шабаб", City: "Эр-Рияд", Founded: 1947, Stadium: "Стадион Принца Фейсала"},
			{Name: "Аль-Таавун", City: "Бурайда", Founded: 1956, Stadium: "Стадион Короля Абдуллы"},
			{Name: "Аль-Фатех", City: "Эль-Хуфуф", Founded: 1958, Stadium: "Стадион Принца Абдуллы"},
			{Name: "Аль-Райян", City: "Табук", Founded: 1967, Stadium: "Стадион Принца Фахда"},
			{Name: "Аль-Веда", City: "Мекка", Founded: 1945, Stadium: "Стадион Короля Абдулазиза"},
			{Name: "Дамак", City: "Хамис-Мушайт", Founded: 1972, Stadium: "Стадион Принца Султана"},
			{Name: "Аль-Хазм", City: "Эр-Расс", Founded: 1957, Stadium: "Стадион Принца Абдулрахмана"},
			{Name: "Аль-Фейсали", City: "Эль-Маджмаа", Founded: 1954, Stadium: "Стадион Принца Салмана"},
		},
		Players: []Player{
			{Name: "Криштиану Роналду", Team: "Аль-Насср", Position: "Нападающий", Nationality: "Португалия"},
			{Name: "Садио Мане", Team: "Аль-Насср", Position: "Крайний нападающий", Nationality: "Сенегал"},
			{Name: "Рияд Марез", Team: "Аль-Ахли", Position: "Крайний нападающий", Nationality: "Алжир"},
			{Name: "Н'Голо Канте", Team: "Аль-Иттихад", Position: "Полузащитник", Nationality: "Франция"},
			{Name: "Карим Бензема", Team: "Аль-Иттихад", Position: "Нападающий", Nationality: "Франция"},
			{Name: "Роберто Фирмино", Team: "Аль-Ахли", Position: "Нападающий", Nationality: "Бразилия"},
			{Name: "Неймар", Team: "Аль-Хиляль", Position: "Крайний нападающий", Nationality: "Бразилия"},
			{Name: "Малком", Team: "Аль-Хиляль", Position: "Крайний нападающий", Nationality: "Бразилия"},
			{Name: "Фабиньо", Team: "Аль-Иттихад", Position: "Полузащитник", Nationality: "Бразилия"},
			{Name: "Милинкович-Савич", Team: "Аль-Хиляль", Position: "Полузащитник", Nationality: "Сербия"},
		},
		Tournaments: []string{
			"Саудовская Про Лига",
			"Кубок Саудовской Аравии",
			"Суперкубок Саудовской Аравии",
			"Азиатская Лига чемпионов",
			"Кубок Короля Салмана",
		},
		Channels: []string{
			"SSC Sport 1", "SSC Sport 2", "SSC Sport 3",
			"beIN Sports 1", "beIN Sports 2",
			"Dubai Sports", "Abu Dhabi Sports",
			"KSA Sports", "Saudi Sports",
		},
		Achievements: []string{
			"забил решающий гол на последних минутах",
			"сделал голевую передачу",
			"отразил пенальти",
			"забил дубль",
			"оформил хет-трик",
			"получил желтую карточку за грубую игру",
			"был удален с поля",
			"стал лучшим игроком матча",
			"установил новый рекорд скорости",
			"провел 90 минут без замен",
		},
	}
}
