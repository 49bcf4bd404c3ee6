// Package render рисует сетку доступности инструктора картинкой для Telegram
package render

import (
	"bytes"
	"image/color"
	"strconv"
	"sync"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// FontStyle определяет стиль шрифта
type FontStyle string

const (
	FontStyleDefault FontStyle = ""
	FontStyleMedium  FontStyle = "medium"
	FontStyleBold    FontStyle = "bold"
)

const (
	imageWidth       = 1400
	imageHeight      = 900
	headerHeight     = 100
	leftLabelsWidth  = 80
	legendWidth      = 150
	dayPaddingX      = 8
	minSlotHeight    = 8.0
	slotBorderRadius = 6.0
	shadowOffset     = 3.0
	daysPerImage     = 7
	hourPaddingTop   = 1
	hourPaddingBot   = 1
	defaultMinHour   = 8
	defaultMaxHour   = 20
)

const (
	titleFontSize      = 25.0
	dayFontSize        = 24.0
	hourLabelFontSize  = 18.0
	slotTimeFontSize   = 16.0
	legendItemFontSize = 13.0
)

var (
	bgColor          = color.RGBA{245, 246, 248, 255}
	textColor        = color.RGBA{80, 85, 90, 220}
	hourLabelColor   = color.RGBA{110, 115, 120, 200}
	hourLineColor    = color.NRGBA{150, 150, 150, 255}
	todayBgColor     = color.NRGBA{255, 99, 71, 125}
	evenDayColor     = color.NRGBA{240, 240, 240, 255}
	oddDayColor      = color.NRGBA{220, 220, 220, 255}
	dayOffColor      = color.NRGBA{200, 200, 205, 255}
	currentTimeColor = color.NRGBA{255, 80, 80, 200}

	slotAvailableColor  = color.RGBA{133, 193, 85, 220}
	slotPendingColor    = color.RGBA{255, 214, 102, 230}
	slotBookedColor     = color.RGBA{255, 182, 193, 255}
	slotBlockedColor    = color.RGBA{158, 158, 158, 200}
	slotTextColor       = color.RGBA{20, 24, 28, 230}
	slotBookedTextColor = color.RGBA{120, 40, 50, 255}
	slotShadowColor     = color.RGBA{0, 0, 0, 20}

	legendItemColor = color.RGBA{70, 74, 78, 220}
)

type hourRange struct {
	start int
	end   int
	total int
}

var (
	fontsMu     sync.Mutex
	cachedFonts = make(map[FontStyle]*opentype.Font)
)

// loadFont ставит шрифт Go нужного стиля, при ошибке basicfont
func loadFont(dc *gg.Context, size float64, style FontStyle) {
	var fontData []byte
	switch style {
	case FontStyleMedium:
		fontData = gomedium.TTF
	case FontStyleBold:
		fontData = gobold.TTF
	default:
		fontData = goregular.TTF
	}

	fontsMu.Lock()
	parsed, ok := cachedFonts[style]
	if !ok {
		var err error
		parsed, err = opentype.Parse(fontData)
		if err != nil {
			fontsMu.Unlock()
			dc.SetFontFace(basicfont.Face7x13)
			return
		}
		cachedFonts[style] = parsed
	}
	fontsMu.Unlock()

	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		dc.SetFontFace(basicfont.Face7x13)
		return
	}
	dc.SetFontFace(face)
}

// WeekImage рисует до семи дней сетки доступности. now подсвечивает сегодняшний день.
func WeekImage(days []model.DayAvailability, now time.Time) ([]byte, error) {
	if len(days) > daysPerImage {
		days = days[:daysPerImage]
	}

	today := model.DateOf(now)
	hours := calculateHourRange(days)

	dc := createCanvas()
	dayWidth := (imageWidth - leftLabelsWidth - legendWidth) / daysPerImage
	dayHeight := imageHeight - headerHeight
	cellHeight := float64(dayHeight) / float64(hours.total)

	drawHeader(dc, days)
	drawHourLabels(dc, hours, cellHeight)

	highlightToday := false
	for i, day := range days {
		x := float64(leftLabelsWidth + i*dayWidth)
		y := float64(headerHeight)
		isToday := day.Date.Equal(today)
		highlightToday = highlightToday || isToday

		drawDayBackground(dc, x, y, dayWidth, dayHeight, i, isToday, day.IsWorkingDay)
		drawDayHeader(dc, day.Date, x, y, dayWidth)
		drawHourLines(dc, x, y, dayWidth, hours, cellHeight)
		for _, slot := range day.Slots {
			drawSlot(dc, slot, x, y, dayWidth, hours, cellHeight)
		}
	}

	if highlightToday {
		drawCurrentTimeLine(dc, now, hours, cellHeight, dayWidth*len(days))
	}
	drawLegend(dc, dayWidth)

	return encodeImage(dc)
}

// calculateHourRange диапазон часов по всем слотам, с полями сверху и снизу
func calculateHourRange(days []model.DayAvailability) hourRange {
	minHour, maxHour := 24, 0
	for _, day := range days {
		for _, slot := range day.Slots {
			startH := slot.StartTime.Hour()
			endH := slot.EndTime.Hour()
			if slot.EndTime.Minute() > 0 {
				endH++
			}
			minHour = min(minHour, startH)
			maxHour = max(maxHour, endH)
		}
	}

	if minHour == 24 {
		minHour, maxHour = defaultMinHour, defaultMaxHour
	}

	start := max(minHour-hourPaddingTop, 0)
	end := min(maxHour+hourPaddingBot, 24)

	return hourRange{start: start, end: end, total: end - start}
}

func createCanvas() *gg.Context {
	dc := gg.NewContext(imageWidth, imageHeight)
	dc.SetColor(bgColor)
	dc.Clear()
	return dc
}

// drawHeader название месяца, или двух если неделя на стыке
func drawHeader(dc *gg.Context, days []model.DayAvailability) {
	if len(days) == 0 {
		return
	}
	first, last := days[0].Date.Month(), days[len(days)-1].Date.Month()

	title := monthName(first)
	if first != last {
		title += " - " + monthName(last)
	}

	loadFont(dc, titleFontSize, FontStyleBold)
	dc.SetColor(textColor)
	w, h := dc.MeasureString(title)
	dc.DrawStringAnchored(title, w/2+10, float64(headerHeight)/8+h/2, 0, 0)
}

func drawHourLabels(dc *gg.Context, hours hourRange, cellHeight float64) {
	loadFont(dc, hourLabelFontSize, FontStyleMedium)
	dc.SetColor(hourLabelColor)

	for i := 0; i <= hours.total; i++ {
		y := float64(headerHeight) + float64(i)*cellHeight
		dc.DrawStringAnchored(formatHourLabel(hours.start+i), float64(leftLabelsWidth)-10, y, 1, 0.5)
	}
}

func drawDayBackground(dc *gg.Context, x, y float64, dayWidth, dayHeight, dayIndex int, isToday, isWorkingDay bool) {
	switch {
	case isToday:
		dc.SetColor(todayBgColor)
	case !isWorkingDay:
		dc.SetColor(dayOffColor)
	case dayIndex%2 == 0:
		dc.SetColor(evenDayColor)
	default:
		dc.SetColor(oddDayColor)
	}
	dc.DrawRectangle(x, y, float64(dayWidth), float64(dayHeight))
	dc.Fill()
}

func drawDayHeader(dc *gg.Context, date time.Time, x, y float64, dayWidth int) {
	loadFont(dc, dayFontSize, FontStyleBold)
	dc.SetColor(textColor)
	dc.DrawStringAnchored(date.Format("02.01"), x+float64(dayWidth)/2, y, 0.5, -1)
	dc.DrawStringAnchored(weekdayShort(date.Weekday()), x+float64(dayWidth)/2, y, 0.5, -0.2)
}

func drawHourLines(dc *gg.Context, x, y float64, dayWidth int, hours hourRange, cellHeight float64) {
	dc.SetLineWidth(0.3)
	dc.SetColor(hourLineColor)

	for i := 0; i <= hours.total; i++ {
		hy := y + float64(i)*cellHeight
		dc.DrawLine(x, hy, x+float64(dayWidth), hy)
		dc.Stroke()
	}
}

// drawSlot рисует один слот сетки
func drawSlot(dc *gg.Context, slot model.Slot, x, y float64, dayWidth int, hours hourRange, cellHeight float64) {
	startHour := float64(slot.StartTime) / 60
	endHour := float64(slot.EndTime) / 60

	slotY := y + (startHour-float64(hours.start))*cellHeight
	slotHeight := max((endHour-startHour)*cellHeight, minSlotHeight)

	fillColor := slotColor(slot.Status)
	slotWidth := float64(dayWidth) - float64(dayPaddingX*2)

	dc.SetColor(slotShadowColor)
	dc.DrawRoundedRectangle(x+dayPaddingX+shadowOffset, slotY+2+shadowOffset, slotWidth, slotHeight-4, slotBorderRadius)
	dc.Fill()

	dc.SetColor(fillColor)
	dc.DrawRoundedRectangle(x+dayPaddingX, slotY+2, slotWidth, slotHeight-4, slotBorderRadius)
	dc.Fill()

	dc.SetColor(darkenColor(fillColor, 0.8))
	dc.SetLineWidth(1)
	dc.DrawRoundedRectangle(x+dayPaddingX, slotY+2, slotWidth, slotHeight-4, slotBorderRadius)
	dc.Stroke()

	txtColor := slotTextColor
	if slot.Status == model.SlotStatusBooked {
		txtColor = slotBookedTextColor
	}

	loadFont(dc, slotTimeFontSize, FontStyleMedium)
	dc.SetColor(txtColor)
	txtX := x + dayPaddingX + 8
	txtY := slotY + 18
	dc.DrawStringAnchored(slot.StartTime.String()+"-"+slot.EndTime.String(), txtX, txtY, 0, 0)

	if slot.BookingID != nil && slotHeight > 25 {
		loadFont(dc, slotTimeFontSize-2, FontStyleDefault)
		dc.DrawStringAnchored("#"+strconv.FormatInt(*slot.BookingID, 10), txtX, txtY+16, 0, 0)
	}
}

func slotColor(status model.SlotStatus) color.RGBA {
	switch status {
	case model.SlotStatusAvailable:
		return slotAvailableColor
	case model.SlotStatusPending:
		return slotPendingColor
	case model.SlotStatusBooked:
		return slotBookedColor
	default:
		return slotBlockedColor
	}
}

func darkenColor(c color.RGBA, factor float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c.R) * factor),
		G: uint8(float64(c.G) * factor),
		B: uint8(float64(c.B) * factor),
		A: c.A,
	}
}

// drawCurrentTimeLine красная линия текущего времени
func drawCurrentTimeLine(dc *gg.Context, now time.Time, hours hourRange, cellHeight float64, width int) {
	current := float64(now.Hour()) + float64(now.Minute())/60.0
	if current < float64(hours.start) || current > float64(hours.end) {
		return
	}

	lineY := float64(headerHeight) + (current-float64(hours.start))*cellHeight
	dc.SetColor(currentTimeColor)
	dc.SetLineWidth(2.0)
	dc.DrawLine(float64(leftLabelsWidth), lineY, float64(leftLabelsWidth+width), lineY)
	dc.Stroke()
}

func drawLegend(dc *gg.Context, dayWidth int) {
	legendX := float64(leftLabelsWidth + daysPerImage*dayWidth + 10)
	legendY := float64(imageHeight) - 140.0

	items := []struct {
		Label string
		Clr   color.Color
	}{
		{"Свободно", slotAvailableColor},
		{"Ожидает", slotPendingColor},
		{"Забронировано", slotBookedColor},
		{"Занято", slotBlockedColor},
	}

	const boxW, boxH = 20.0, 14.0
	liY := legendY + 22

	for _, item := range items {
		dc.SetColor(item.Clr)
		dc.DrawRoundedRectangle(legendX, liY, boxW, boxH, 3)
		dc.Fill()

		loadFont(dc, legendItemFontSize, FontStyleDefault)
		dc.SetColor(legendItemColor)
		dc.DrawStringAnchored(item.Label, legendX+boxW+8, liY+boxH/2+1, 0, 0.2)
		liY += boxH + 14
	}
}

func encodeImage(dc *gg.Context) ([]byte, error) {
	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatHourLabel(h int) string {
	if h < 10 {
		return "0" + strconv.Itoa(h) + ":00"
	}
	return strconv.Itoa(h) + ":00"
}

func weekdayShort(weekday time.Weekday) string {
	return [...]string{"Вс", "Пн", "Вт", "Ср", "Чт", "Пт", "Сб"}[weekday]
}

func monthName(month time.Month) string {
	return [...]string{"", "Январь", "Февраль", "Март", "Апрель", "Май", "Июнь",
		"Июль", "Август", "Сентябрь", "Октябрь", "Ноябрь", "Декабрь"}[month]
}
