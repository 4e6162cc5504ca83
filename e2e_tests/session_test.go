package e2etests

import (
	"fmt"
	"strings"
)

func insertCommand(id int) string {
	return fmt.Sprintf("insert %d user%d person%d@example.com", id, id, id)
}

func rowLine(id int) string {
	return fmt.Sprintf("(%d, user%d, person%d@example.com)", id, id, id)
}

func (s *TestSuite) TestInsertAndSelect() {
	result := s.runScript(
		insertCommand(1),
		"select",
		"mk_exit",
	)

	s.Equal([]string{
		"db > Executed!",
		"db > " + rowLine(1),
		"Executed!",
		"db > ",
	}, result)
}

func (s *TestSuite) TestTableFull() {
	script := make([]string, 0, 1402)
	for i := 1; i <= 1401; i++ {
		script = append(script, insertCommand(i))
	}
	script = append(script, "mk_exit")

	result := s.runScript(script...)

	s.Require().Len(result, 1402)
	s.Equal([]string{
		"db > Error: Table full.",
		"db > ",
	}, result[len(result)-2:])

	// Every row accepted before the pages ran out is still there
	result = s.runScript("select", "mk_exit")
	s.Require().Greater(len(result), 2)
	s.Equal("db > "+rowLine(1), result[0])
	for i, line := range result[1 : len(result)-2] {
		s.Equal(rowLine(i+2), line)
	}
}

func (s *TestSuite) TestMaximumLengthStrings() {
	var (
		longUsername = strings.Repeat("a", 32)
		longEmail    = strings.Repeat("a", 255)
	)

	result := s.runScript(
		fmt.Sprintf("insert 1 %s %s", longUsername, longEmail),
		"select",
		"mk_exit",
	)

	s.Equal([]string{
		"db > Executed!",
		fmt.Sprintf("db > (1, %s, %s)", longUsername, longEmail),
		"Executed!",
		"db > ",
	}, result)
}

func (s *TestSuite) TestStringsTooLong() {
	var (
		longUsername = strings.Repeat("a", 33)
		longEmail    = strings.Repeat("a", 256)
	)

	result := s.runScript(
		fmt.Sprintf("insert 1 %s %s", longUsername, longEmail),
		"select",
		"mk_exit",
	)

	s.Equal([]string{
		"db > Your strings are coming on a little too long",
		"db > Executed!",
		"db > ",
	}, result)
}

func (s *TestSuite) TestNegativeID() {
	result := s.runScript(
		"insert -1 cstack foo@bar.com",
		"select",
		"mk_exit",
	)

	s.Equal([]string{
		"db > I like my IDs like I like my attitudes: positive",
		"db > Executed!",
		"db > ",
	}, result)
}

func (s *TestSuite) TestKeepsDataAfterRestart() {
	result := s.runScript(
		insertCommand(1),
		"mk_exit",
	)
	s.Equal([]string{
		"db > Executed!",
		"db > ",
	}, result)

	result = s.runScript(
		"select",
		"mk_exit",
	)
	s.Equal([]string{
		"db > " + rowLine(1),
		"Executed!",
		"db > ",
	}, result)
}

func (s *TestSuite) TestKeepsMultiLevelTreeAfterRestart() {
	script := make([]string, 0, 31)
	for i := 30; i >= 1; i-- {
		script = append(script, insertCommand(i))
	}
	script = append(script, "mk_exit")
	s.runScript(script...)

	result := s.runScript("select", "mk_exit")
	s.Require().Len(result, 32)
	s.Equal("db > "+rowLine(1), result[0])
	for i := 2; i <= 30; i++ {
		s.Equal(rowLine(i), result[i-1])
	}
	s.Equal("Executed!", result[30])
}

func (s *TestSuite) TestConstants() {
	result := s.runScript(
		"mk_constants",
		"mk_exit",
	)

	s.Equal([]string{
		"db > Constants:",
		"ROW_SIZE: 293",
		"COMMON_NODE_HEADER_SIZE: 6",
		"LEAF_NODE_HEADER_SIZE: 14",
		"LEAF_NODE_CELL_SIZE: 297",
		"LEAF_NODE_SPACE_FOR_CELLS: 4082",
		"LEAF_NODE_MAX_CELLS: 13",
		"INTERNAL_NODE_HEADER_SIZE: 14",
		"INTERNAL_NODE_CELL_SIZE: 8",
		"db > ",
	}, result)
}

func (s *TestSuite) TestOneNodeTree() {
	script := make([]string, 0, 5)
	for _, i := range []int{3, 1, 2} {
		script = append(script, insertCommand(i))
	}
	script = append(script, "mk_btree", "mk_exit")

	result := s.runScript(script...)

	s.Equal([]string{
		"db > Executed!",
		"db > Executed!",
		"db > Executed!",
		"db > Tree:",
		"leaf (size 3)",
		"    1",
		"    2",
		"    3",
		"db > ",
	}, result)
}

func (s *TestSuite) TestDuplicateID() {
	result := s.runScript(
		insertCommand(1),
		insertCommand(1),
		"select",
		"mk_exit",
	)

	s.Equal([]string{
		"db > Executed!",
		"db > Error: I don't like seconds",
		"db > " + rowLine(1),
		"Executed!",
		"db > ",
	}, result)
}

func (s *TestSuite) TestThreeLeafNodeTree() {
	script := make([]string, 0, 17)
	for i := 1; i <= 14; i++ {
		script = append(script, insertCommand(i))
	}
	script = append(script, "mk_btree", insertCommand(15), "mk_exit")

	result := s.runScript(script...)

	s.Equal([]string{
		"db > Tree:",
		"internal (size 1)",
		"    leaf (size 7)",
		"        1",
		"        2",
		"        3",
		"        4",
		"        5",
		"        6",
		"        7",
		"key 7",
		"    leaf (size 7)",
		"        8",
		"        9",
		"        10",
		"        11",
		"        12",
		"        13",
		"        14",
		"db > Executed!",
		"db > ",
	}, result[14:])
}

func (s *TestSuite) TestSelectMultiLevelTree() {
	script := make([]string, 0, 17)
	for i := 1; i <= 15; i++ {
		script = append(script, insertCommand(i))
	}
	script = append(script, "select", "mk_exit")

	result := s.runScript(script...)

	expected := []string{"db > " + rowLine(1)}
	for i := 2; i <= 15; i++ {
		expected = append(expected, rowLine(i))
	}
	expected = append(expected, "Executed!", "db > ")
	s.Equal(expected, result[15:])
}

func (s *TestSuite) TestUnrecognizedInput() {
	result := s.runScript(
		"mk_tables",
		"delete 1",
		"insert one two three",
		"mk_exit",
	)

	s.Equal([]string{
		"db > Unrecognized command 'mk_tables'",
		"db > Unrecognized keyword at start of 'delete 1'.",
		"db > Syntax error. Could not parse statement.",
		"db > ",
	}, result)
}
