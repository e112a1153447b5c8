package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/langportal/internal/config"
	"github.com/langportal/internal/db"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 词库种子工具：写入默认练习类型与词组，并可从 xlsx/csv 导入词表
// 表格列固定为 泰文 / 英文 / 罗马音 / IPA / 例句，首行为表头
func main() {
	file := flag.String("file", "", "path to an .xlsx or .csv word list (optional)")
	sheet := flag.String("sheet", "Sheet1", "sheet name for .xlsx imports")
	groupName := flag.String("group", "Common Words", "group the imported words are linked to")
	flag.Parse()

	_ = godotenv.Load()

	cfg := config.Load()
	gdb, err := db.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("数据库初始化失败: %v", err)
	}

	fmt.Println("开始写入种子数据...")

	if err := seedActivities(gdb); err != nil {
		log.Fatalf("写入练习类型失败: %v", err)
	}
	if err := seedGroups(gdb); err != nil {
		log.Fatalf("写入词组失败: %v", err)
	}

	if *file != "" {
		created, skipped, err := importWords(gdb, *file, *sheet, *groupName)
		if err != nil {
			log.Fatalf("导入词表失败: %v", err)
		}
		fmt.Printf("词表导入完成: 新增 %d, 跳过 %d\n", created, skipped)
	}

	fmt.Println("种子数据写入完成！")
}

func seedActivities(gdb *gorm.DB) error {
	activities := []db.StudyActivity{
		{
			Name:         "Vocabulary Quiz",
			Description:  "A quiz to test your vocabulary knowledge",
			ThumbnailURL: "/static/activities/vocab-quiz.jpg",
			LaunchURL:    "/activities/vocabulary-quiz",
		},
		{
			Name:         "Typing Practice",
			Description:  "A typing practice to test your vocabulary knowledge",
			ThumbnailURL: "/static/activities/typing.jpg",
			LaunchURL:    "/activities/typing-practice",
		},
	}

	return gdb.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&activities).Error
}

func seedGroups(gdb *gorm.DB) error {
	groups := []db.Group{
		{Name: "Common Words"},
		{Name: "Basic Phrases"},
		{Name: "Greetings"},
	}

	return gdb.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&groups).Error
}

type wordRow struct {
	Thai      string
	English   string
	Romanized string
	IPA       string
	Example   string
}

func importWords(gdb *gorm.DB, path, sheet, groupName string) (created, skipped int, err error) {
	var rows []wordRow
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		rows, err = readCSV(path)
	} else {
		rows, err = readExcel(path, sheet)
	}
	if err != nil {
		return 0, 0, err
	}

	var group db.Group
	if err := gdb.Where("name = ?", groupName).First(&group).Error; err != nil {
		return 0, 0, fmt.Errorf("load group %q: %w", groupName, err)
	}

	for _, row := range rows {
		if row.Thai == "" {
			skipped++
			continue
		}

		word := db.Word{
			Thai:      row.Thai,
			English:   row.English,
			Romanized: row.Romanized,
			IPA:       row.IPA,
			Example:   row.Example,
		}
		result := gdb.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "thai"}},
			DoNothing: true,
		}).Create(&word)
		if result.Error != nil {
			return created, skipped, fmt.Errorf("create word %q: %w", row.Thai, result.Error)
		}
		if result.RowsAffected == 0 {
			skipped++
			// 已存在的词也要确保进组，先取回其 ID
			if err := gdb.Where("thai = ?", row.Thai).First(&word).Error; err != nil {
				return created, skipped, fmt.Errorf("load word %q: %w", row.Thai, err)
			}
		} else {
			created++
		}

		link := db.WordGroup{WordID: word.ID, GroupID: group.ID}
		if err := gdb.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "word_id"}, {Name: "group_id"}},
			DoNothing: true,
		}).Create(&link).Error; err != nil {
			return created, skipped, fmt.Errorf("link word %q: %w", row.Thai, err)
		}
	}

	return created, skipped, nil
}

func readExcel(path, sheet string) ([]wordRow, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open excel file: %w", err)
	}
	defer f.Close()

	raw, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	rows := make([]wordRow, 0, len(raw))
	for i, cells := range raw {
		if i == 0 {
			// 表头
			continue
		}
		rows = append(rows, rowFromCells(cells))
	}
	return rows, nil
}

func readCSV(path string) ([]wordRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	var rows []wordRow
	first := true
	for {
		cells, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if first {
			first = false
			continue
		}
		rows = append(rows, rowFromCells(cells))
	}
	return rows, nil
}

func rowFromCells(cells []string) wordRow {
	get := func(i int) string {
		if i < len(cells) {
			return strings.TrimSpace(cells[i])
		}
		return ""
	}
	return wordRow{
		Thai:      get(0),
		English:   get(1),
		Romanized: get(2),
		IPA:       get(3),
		Example:   get(4),
	}
}
