package domain

type Team struct {
	TeamID    int64  `json:"TeamID" validate:"required"`
	TeamName  string `json:"TeamName" validate:"required"`
	ShortName string `json:"ShortName,omitempty"` // 队名拼音首字母缩写，可选
}

type Venue struct {
	VenueID   int64  `json:"VenueID" validate:"required"`
	VenueName string `json:"VenueName" validate:"required"`
}

type RestPeriods struct {
	MinimumHours *float64 `json:"minimum_hours,omitempty" validate:"omitempty,min=0"` // 缺省时为 72 小时，显式的 0 表示不限制
}

// Constraints 是已经解码的赛程约束，字段名与约束文件保持一致
type Constraints struct {
	Teams       []Team       `json:"teams" validate:"required,min=2,dive"`
	Venues      []Venue      `json:"venues" validate:"required,min=1,dive"`
	Days        []string     `json:"days" validate:"required,min=1,dive,required"`
	TimeSlots   []string     `json:"time_slots" validate:"required,min=1,dive,required"`
	Weeks       []string     `json:"weeks" validate:"required,min=1,dive,required"`
	RestPeriods *RestPeriods `json:"rest_periods,omitempty" validate:"omitempty"`
}

// MatchRecord 是一场比赛对外展示的形式，所有下标都已经替换成名称
type MatchRecord struct {
	TeamAID   int64  `json:"teamAID" validate:"required"`
	TeamAName string `json:"teamAName"`
	TeamBID   int64  `json:"teamBID" validate:"required"`
	TeamBName string `json:"teamBName"`
	VenueID   int64  `json:"venueID" validate:"required"`
	VenueName string `json:"venueName"`
	Day       string `json:"day" validate:"required"`
	TimeSlot  string `json:"timeSlot" validate:"required"`
	Week      string `json:"week" validate:"required"`
}

type VenueViolation struct {
	VenueID   int64  `json:"venueID"`
	VenueName string `json:"venueName"`
	Week      string `json:"week"`
	Day       string `json:"day"`
	TimeSlot  string `json:"timeSlot,omitempty"` // 按天统计场馆冲突时为空
	Count     int    `json:"count"`
}

type RestViolation struct {
	TeamID   int64  `json:"teamID"`
	TeamName string `json:"teamName"`
	PrevDay  int    `json:"prevDay"` // 绝对日序号：week*7 + 星期下标
	NextDay  int    `json:"nextDay"`
	Gap      int    `json:"gap"`
}

type TimeViolation struct {
	TeamID   int64  `json:"teamID"`
	TeamName string `json:"teamName"`
	TimeSlot string `json:"timeSlot"`
	Count    int    `json:"count"`
}
