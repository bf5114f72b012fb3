package extract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const classTable = `<table class="kj_tablelist02">
<tr class="head"><td>期号</td><td>开奖日期</td><td class="redtext">红球</td><td class="bluetext">蓝球</td></tr>
<tr>
  <td>2025141</td><td>2025-10-16(四)</td>
  <td><em class="rr">19</em><span class="ball_red">19</span><span class="ball_red">03</span>
      <span class="ball_red">33</span><span class="ball_red">08</span>
      <span class="ball_red">27</span><span class="ball_red">12</span></td>
  <td><span class="ball_blue">09</span></td>
</tr>
<tr>
  <td>2025140</td><td>2025-10-14(二)</td>
  <td><span class="ball_red">01</span><span class="ball_red">05</span><span class="ball_red">11</span>
      <span class="ball_red">20</span><span class="ball_red">22</span><span class="ball_red">30</span></td>
  <td><span class="ball_blue">16</span></td>
</tr>
</table>`

func TestClassExtractsNewestRow(t *testing.T) {
	t.Parallel()

	got, ok := NewClass().Extract([]byte(classTable))
	require.True(t, ok)
	require.Equal(t, "2025141", got.Issue)
	require.Equal(t, []int{19, 3, 33, 8, 27, 12}, got.RedRevealOrder)
	require.Equal(t, []int{3, 8, 12, 19, 27, 33}, got.Red)
	require.Equal(t, 9, got.Blue)
}

func TestClassCountsLeafBallsOnly(t *testing.T) {
	t.Parallel()

	doc := `<ul><li><p>2025-10-19 第2025142期</p>
<div class="red-balls"><i class="red">02</i><i class="red">07</i><i class="red">14</i>
<i class="red">21</i><i class="red">28</i><i class="red">31</i></div>
<div class="blue-balls"><i class="blue">05</i></div></li></ul>`

	got, ok := NewClass().Extract([]byte(doc))
	require.True(t, ok)
	require.Equal(t, "2025142", got.Issue)
	require.Equal(t, []int{2, 7, 14, 21, 28, 31}, got.Red)
	require.Equal(t, 5, got.Blue)
}

func TestClassSkipsRowsWithRepeatedRed(t *testing.T) {
	t.Parallel()

	doc := `<table><tr><td>2025141</td><td>2025-10-16</td>
<td class="red">19</td><td class="red">19</td><td class="red">33</td>
<td class="red">08</td><td class="red">27</td><td class="red">12</td><td class="blue">09</td></tr></table>`

	_, ok := NewClass().Extract([]byte(doc))
	require.False(t, ok)
}

func TestClassIgnoresDocumentsWithoutBallClasses(t *testing.T) {
	t.Parallel()

	doc := drawParagraph("2025-10-16", "2025141", "19", "03", "33", "08", "27", "12", "09")
	_, ok := NewClass().Extract([]byte(doc))
	require.False(t, ok)
}
