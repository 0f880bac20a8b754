package tgui

import (
	tele "gopkg.in/telebot.v4"
)

// Inline builds an inline keyboard row by row.
type Inline struct {
	rm   *tele.ReplyMarkup
	rows []tele.Row
}

func NewInline() *Inline {
	return &Inline{rm: &tele.ReplyMarkup{}}
}

// Row appends a row. Empty rows are ignored.
func (i *Inline) Row(btn ...tele.Btn) *Inline {
	if len(btn) == 0 {
		return i
	}
	i.rows = append(i.rows, i.rm.Row(btn...))
	i.rm.Inline(i.rows...)
	return i
}

// Grid appends buttons in rows of cols.
func (i *Inline) Grid(cols int, btns []tele.Btn) *Inline {
	if cols <= 0 {
		cols = 2
	}
	for len(btns) > 0 {
		n := min(cols, len(btns))
		i.Row(btns[:n]...)
		btns = btns[n:]
	}
	return i
}

// Rows reports the number of rows added so far.
func (i *Inline) Rows() int { return len(i.rows) }

func (i *Inline) Markup() *tele.ReplyMarkup { return i.rm }

// Btn creates a callback button. data is used verbatim; build it with Data.
func Btn(text, data string) tele.Btn {
	return tele.Btn{Text: text, Data: data}
}

func URLBtn(text, url string) tele.Btn {
	return tele.Btn{Text: text, URL: url}
}
