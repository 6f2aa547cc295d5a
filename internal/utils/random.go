package utils

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/mozillazg/go-pinyin"

	"github.com/sysu-ecnc-dev/tournament-scheduler/backend/internal/domain"
)

var cityNames = []string{
	"广州", "深圳", "珠海", "佛山", "东莞", "中山", "江门", "惠州", "汕头", "湛江",
	"韶关", "清远", "肇庆", "茂名", "梅州", "潮州", "揭阳", "阳江", "云浮", "河源",
}
var mascotNames = []string{
	"猛虎", "雄狮", "飞鹰", "蛟龙", "骏马", "猎豹", "海豚", "黑熊", "苍狼", "火凤",
}
var campusNames = []string{
	"东校区", "南校区", "北校区", "珠海校区", "深圳校区",
}
var venueKinds = []string{
	"体育馆", "篮球馆", "综合馆", "风雨操场",
}
var timeSlotLabels = []string{
	"09:00", "10:30", "14:00", "15:30", "19:00", "20:30",
}
var weekdayNames = []string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

var (
	selectionMethods   = []string{"tournament", "rank_based"}
	crossoverMethods   = []string{"order", "pmx"}
	mutationMethods    = []string{"swap", "attribute_level"}
	survivorStrategies = []string{"elitism", "genitor"}
)

func GenerateRandomTeamName(rng *rand.Rand) string {
	return cityNames[rng.Intn(len(cityNames))] + mascotNames[rng.Intn(len(mascotNames))]
}

// ShortNameFromChineseName 取每个汉字拼音的首字母并大写，例如 广州猛虎 -> GZMH
func ShortNameFromChineseName(chineseName string) string {
	args := pinyin.NewArgs()
	args.Style = pinyin.FirstLetter

	var sb strings.Builder
	for _, p := range pinyin.LazyPinyin(chineseName, args) {
		sb.WriteString(strings.ToUpper(p))
	}
	return sb.String()
}

// GenerateRandomTeams 生成 n 支队名互不相同的队伍，ID 从 1 开始
func GenerateRandomTeams(rng *rand.Rand, n int) []domain.Team {
	teams := make([]domain.Team, 0, n)
	seen := make(map[string]bool, n)

	for len(teams) < n {
		name := GenerateRandomTeamName(rng)
		if seen[name] {
			// 名字组合用完之后加上编号
			if len(seen) >= len(cityNames)*len(mascotNames) {
				name = fmt.Sprintf("%s%d队", name, len(teams)+1)
			} else {
				continue
			}
		}
		seen[name] = true

		teams = append(teams, domain.Team{
			TeamID:    int64(len(teams) + 1),
			TeamName:  name,
			ShortName: ShortNameFromChineseName(name),
		})
	}

	return teams
}

func GenerateRandomVenues(rng *rand.Rand, n int) []domain.Venue {
	venues := make([]domain.Venue, n)
	for i := range venues {
		venues[i] = domain.Venue{
			VenueID:   int64(i + 1),
			VenueName: fmt.Sprintf("%s%s%d号", campusNames[rng.Intn(len(campusNames))], venueKinds[rng.Intn(len(venueKinds))], i+1),
		}
	}
	return venues
}

// 随机选出 n 个元素，保持原有顺序
func randomOrderedSubset(rng *rand.Rand, items []string, n int) []string {
	n = min(max(n, 1), len(items))
	picked := rng.Perm(len(items))[:n]

	keep := make([]bool, len(items))
	for _, i := range picked {
		keep[i] = true
	}

	subset := make([]string, 0, n)
	for i, item := range items {
		if keep[i] {
			subset = append(subset, item)
		}
	}
	return subset
}

type ConstraintsOptions struct {
	Teams     int
	Venues    int
	Days      int
	TimeSlots int
	Weeks     int
}

func GenerateRandomConstraints(rng *rand.Rand, opts ConstraintsOptions) domain.Constraints {
	weeks := make([]string, max(opts.Weeks, 1))
	for i := range weeks {
		weeks[i] = fmt.Sprintf("第%d周", i+1)
	}

	minimumHours := float64(24 * (rng.Intn(3) + 1))

	return domain.Constraints{
		Teams:     GenerateRandomTeams(rng, max(opts.Teams, 2)),
		Venues:    GenerateRandomVenues(rng, max(opts.Venues, 1)),
		Days:      randomOrderedSubset(rng, weekdayNames, opts.Days),
		TimeSlots: randomOrderedSubset(rng, timeSlotLabels, opts.TimeSlots),
		Weeks:     weeks,
		RestPeriods: &domain.RestPeriods{
			MinimumHours: &minimumHours,
		},
	}
}

// GenerateRandomRunParameters 随机组合算子，数值参数保证合法
func GenerateRandomRunParameters(rng *rand.Rand) domain.RunParameters {
	populationSize := rng.Intn(81) + 20 // 20~100

	return domain.RunParameters{
		PopulationSize:     populationSize,
		GenerationsSize:    rng.Intn(151) + 50, // 50~200
		SelectionMethod:    selectionMethods[rng.Intn(len(selectionMethods))],
		CrossoverMethod:    crossoverMethods[rng.Intn(len(crossoverMethods))],
		MutationMethod:     mutationMethods[rng.Intn(len(mutationMethods))],
		SurvivorStrategy:   survivorStrategies[rng.Intn(len(survivorStrategies))],
		EliteSize:          rng.Intn(populationSize/10 + 1),
		TournamentSize:     rng.Intn(5) + 2,
		SelectionPressure:  1 + rng.Float64(),
		MutationRate:       0.05 + 0.25*rng.Float64(),
		Seed:               rng.Int63(),
		Stagnation:         rng.Intn(3) * 25,
		Weights:            domain.PenaltyWeights{Venue: 1, Rest: 1, Time: 1},
		ImbalanceThreshold: 3,
	}
}
