package bookstore_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/beyondbrewing/bookstore/auth"
	"github.com/beyondbrewing/bookstore/bookstore"
	"github.com/beyondbrewing/bookstore/catalog"
	"github.com/beyondbrewing/bookstore/pkg/logger"
)

func newEngine(t *testing.T, opts ...bookstore.Option) *bookstore.Engine {
	t.Helper()
	base := []bookstore.Option{
		bookstore.WithRoot(t.TempDir()),
		bookstore.WithSyncWrites(false),
		bookstore.WithBcryptCost(bcrypt.MinCost),
		bookstore.WithLockout(0, 0, 0),
		bookstore.WithLogger(logger.NewNop()),
	}
	e, err := bookstore.New(append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Shutdown() })
	require.Equal(t, bookstore.Success, e.Initialize(true))
	return e
}

func rootSession(t *testing.T, e *bookstore.Engine) *bookstore.Session {
	t.Helper()
	st, s := e.Login("root", "sjtu")
	require.Equal(t, bookstore.Success, st)
	return s
}

func lookup(t *testing.T, e *bookstore.Engine, s *bookstore.Session, isbn string) bookstore.Book {
	t.Helper()
	st, books := e.Search(s, bookstore.Book{ISBN: isbn})
	require.Equal(t, bookstore.Success, st)
	require.Len(t, books, 1, "isbn %q", isbn)
	return books[0]
}

func finance(t *testing.T, e *bookstore.Engine, s *bookstore.Session) bookstore.FinanceRecord {
	t.Helper()
	st, rec := e.ShowFinance(s)
	require.Equal(t, bookstore.Success, st)
	return rec
}

func TestInitialize_ForceResetLeavesOnlyAdmin(t *testing.T) {
	e := newEngine(t)
	root := rootSession(t, e)
	require.Equal(t, bookstore.Success, e.AddBook(root, bookstore.Book{ISBN: "X", Price: 1, Quantity: 1}))
	require.Equal(t, bookstore.Success, e.Register("alice", "pw", "Alice"))

	require.Equal(t, bookstore.Success, e.Initialize(true))
	root = rootSession(t, e)

	st, books := e.Search(root, bookstore.Book{})
	assert.Equal(t, bookstore.Success, st)
	assert.NotNil(t, books)
	assert.Empty(t, books)

	st, _ = e.Login("alice", "pw")
	assert.Equal(t, bookstore.InvalidCredentials, st)

	st, stats := e.Stats(root)
	require.Equal(t, bookstore.Success, st)
	assert.Equal(t, 1, stats.Users)
	assert.Equal(t, 0, stats.Books)
	assert.Equal(t, bookstore.FinanceRecord{}, stats.Finance)
}

func TestPurchase_UnknownISBN(t *testing.T) {
	e := newEngine(t)
	root := rootSession(t, e)

	st, rec := e.Purchase(root, "978-7-302-32998-2", 1)
	assert.Equal(t, bookstore.NotFound, st)
	assert.Equal(t, bookstore.FinanceRecord{}, rec)
	assert.Equal(t, int64(0), finance(t, e, root).Income)
}

func TestPurchase_StockAndIncome(t *testing.T) {
	e := newEngine(t)
	root := rootSession(t, e)
	require.Equal(t, bookstore.Success, e.AddBook(root, bookstore.Book{ISBN: "X", Price: 8900, Quantity: 5}))

	st, rec := e.Purchase(root, "X", 2)
	require.Equal(t, bookstore.Success, st)
	assert.Equal(t, int64(17800), rec.Income)
	assert.Equal(t, int64(3), lookup(t, e, root, "X").Quantity)

	st, _ = e.Purchase(root, "X", 10)
	assert.Equal(t, bookstore.InsufficientStock, st)
	assert.Equal(t, int64(3), lookup(t, e, root, "X").Quantity)
	assert.Equal(t, int64(17800), finance(t, e, root).Income)

	for _, qty := range []int64{0, -1} {
		st, _ = e.Purchase(root, "X", qty)
		assert.Equal(t, bookstore.InvalidArgument, st)
	}
	st, _ = e.Purchase(root, "", 1)
	assert.Equal(t, bookstore.InvalidArgument, st)
	assert.Equal(t, bookstore.Success, e.VerifyLedger(root))
}

func TestPurchase_UnitPurchasesAddUp(t *testing.T) {
	e := newEngine(t)
	root := rootSession(t, e)
	const n = 6
	require.Equal(t, bookstore.Success, e.AddBook(root, bookstore.Book{ISBN: "A", Price: 350, Quantity: 10}))
	require.Equal(t, bookstore.Success, e.AddBook(root, bookstore.Book{ISBN: "B", Price: 350, Quantity: 10}))

	before := finance(t, e, root).Income
	for i := 0; i < n; i++ {
		st, _ := e.Purchase(root, "A", 1)
		require.Equal(t, bookstore.Success, st)
	}
	mid := finance(t, e, root).Income
	st, _ := e.Purchase(root, "B", n)
	require.Equal(t, bookstore.Success, st)
	after := finance(t, e, root).Income

	assert.Equal(t, mid-before, after-mid)
	assert.Equal(t, int64(350*n), after-mid)
	assert.Equal(t, lookup(t, e, root, "A").Quantity, lookup(t, e, root, "B").Quantity)
}

func TestPurchase_PriceOverflow(t *testing.T) {
	e := newEngine(t)
	root := rootSession(t, e)
	require.Equal(t, bookstore.Success, e.AddBook(root, bookstore.Book{ISBN: "P", Price: 1 << 62, Quantity: 4}))

	st, _ := e.Purchase(root, "P", 4)
	assert.Equal(t, bookstore.InvalidArgument, st)
	assert.Equal(t, int64(4), lookup(t, e, root, "P").Quantity)
}

func TestModify_WithoutSelect(t *testing.T) {
	e := newEngine(t)
	root := rootSession(t, e)
	require.Equal(t, bookstore.Success, e.AddBook(root, bookstore.Book{ISBN: "X", Title: "Old", Price: 100, Quantity: 1}))

	assert.Equal(t, bookstore.NothingSelected, e.Modify(root, bookstore.Patch{Title: "New"}))
	assert.Equal(t, "Old", lookup(t, e, root, "X").Title)
}

func TestSelectModify(t *testing.T) {
	e := newEngine(t)
	root := rootSession(t, e)
	require.Equal(t, bookstore.Success, e.AddBook(root, bookstore.Book{ISBN: "X", Title: "Old", Author: "A", Price: 100, Quantity: 4}))
	require.Equal(t, bookstore.Success, e.AddBook(root, bookstore.Book{ISBN: "Y", Title: "Other", Price: 200, Quantity: 2}))

	assert.Equal(t, bookstore.NotFound, e.Select(root, "nope"))
	_, selected := root.Cursor().Selected()
	assert.False(t, selected)

	require.Equal(t, bookstore.Success, e.Select(root, "X"))
	isbn, selected := root.Cursor().Selected()
	assert.True(t, selected)
	assert.Equal(t, "X", isbn)

	require.Equal(t, bookstore.Success, e.Modify(root, bookstore.Patch{ISBN: "Z", Title: "New", Price: catalog.Price(150)}))
	_, selected = root.Cursor().Selected()
	assert.False(t, selected)

	st, books := e.Search(root, bookstore.Book{ISBN: "X"})
	require.Equal(t, bookstore.Success, st)
	assert.Empty(t, books)
	z := lookup(t, e, root, "Z")
	assert.Equal(t, bookstore.Book{ISBN: "Z", Title: "New", Author: "A", Price: 150, Quantity: 4}, z)

	// A failed modify still clears the cursor.
	require.Equal(t, bookstore.Success, e.Select(root, "Z"))
	assert.Equal(t, bookstore.InvalidArgument, e.Modify(root, bookstore.Patch{Title: `bad "quote"`}))
	assert.Equal(t, bookstore.NothingSelected, e.Modify(root, bookstore.Patch{Title: "Again"}))
}

func TestModify_DuplicateISBN(t *testing.T) {
	e := newEngine(t)
	root := rootSession(t, e)
	x := bookstore.Book{ISBN: "X", Title: "First", Price: 100, Quantity: 1}
	y := bookstore.Book{ISBN: "Y", Title: "Second", Price: 200, Quantity: 2}
	require.Equal(t, bookstore.Success, e.AddBook(root, x))
	require.Equal(t, bookstore.Success, e.AddBook(root, y))

	require.Equal(t, bookstore.Success, e.Select(root, "X"))
	assert.Equal(t, bookstore.DuplicateISBN, e.Modify(root, bookstore.Patch{ISBN: "Y", Title: "Clobber"}))

	assert.Equal(t, x, lookup(t, e, root, "X"))
	assert.Equal(t, y, lookup(t, e, root, "Y"))
	assert.Equal(t, bookstore.NothingSelected, e.Modify(root, bookstore.Patch{Title: "x"}))
}

func TestSearch_InsertedBookIsFoundByISBN(t *testing.T) {
	e := newEngine(t)
	root := rootSession(t, e)
	books := []bookstore.Book{
		{ISBN: "978-7-302-32998-2", Title: "C++ Primer", Author: "Lippman", Keywords: "programming|cpp", Price: 12800, Quantity: 3},
		{ISBN: "1", Price: 0, Quantity: 0},
		{ISBN: "~!@#", Title: "Symbols", Keywords: "odd", Price: 5, Quantity: 9},
	}
	for _, b := range books {
		require.Equal(t, bookstore.Success, e.AddBook(root, b))
	}
	assert.Equal(t, bookstore.DuplicateISBN, e.AddBook(root, books[0]))

	for _, b := range books {
		got := lookup(t, e, root, b.ISBN)
		if b.Keywords == "programming|cpp" {
			b.Keywords = "cpp|programming"
		}
		assert.Equal(t, b, got)
	}

	st, found := e.Search(root, bookstore.Book{Keywords: "cpp"})
	require.Equal(t, bookstore.Success, st)
	require.Len(t, found, 1)
	assert.Equal(t, "978-7-302-32998-2", found[0].ISBN)

	st, _ = e.Search(root, bookstore.Book{Keywords: "a|b"})
	assert.Equal(t, bookstore.InvalidArgument, st)
}

func TestImport(t *testing.T) {
	e := newEngine(t)
	root := rootSession(t, e)
	require.Equal(t, bookstore.Success, e.AddBook(root, bookstore.Book{ISBN: "X", Price: 500, Quantity: 1}))

	assert.Equal(t, bookstore.NothingSelected, e.Import(root, 5, 1000))

	require.Equal(t, bookstore.Success, e.Select(root, "X"))
	require.Equal(t, bookstore.Success, e.Import(root, 5, 1000))
	require.Equal(t, bookstore.Success, e.Import(root, 1, 0))
	assert.Equal(t, bookstore.InvalidArgument, e.Import(root, 0, 10))
	assert.Equal(t, bookstore.InvalidArgument, e.Import(root, 1, -10))

	isbn, ok := root.Cursor().Selected()
	assert.True(t, ok)
	assert.Equal(t, "X", isbn)

	assert.Equal(t, int64(7), lookup(t, e, root, "X").Quantity)
	rec := finance(t, e, root)
	assert.Equal(t, int64(1000), rec.Expenditure)
	assert.Equal(t, int64(-1000), rec.Balance())
	assert.Equal(t, bookstore.Success, e.VerifyLedger(root))
}

func TestShowFinanceLast(t *testing.T) {
	e := newEngine(t)
	root := rootSession(t, e)
	require.Equal(t, bookstore.Success, e.AddBook(root, bookstore.Book{ISBN: "X", Price: 100, Quantity: 1}))
	require.Equal(t, bookstore.Success, e.Select(root, "X"))
	require.Equal(t, bookstore.Success, e.Import(root, 10, 400))
	for i := 0; i < 3; i++ {
		st, _ := e.Purchase(root, "X", int64(i+1))
		require.Equal(t, bookstore.Success, st)
	}

	st, rec := e.ShowFinanceLast(root, 2)
	require.Equal(t, bookstore.Success, st)
	assert.Equal(t, bookstore.FinanceRecord{Income: 500}, rec)

	st, rec = e.ShowFinanceLast(root, 4)
	require.Equal(t, bookstore.Success, st)
	assert.Equal(t, finance(t, e, root), rec)

	st, rec = e.ShowFinanceLast(root, 0)
	require.Equal(t, bookstore.Success, st)
	assert.Equal(t, bookstore.FinanceRecord{}, rec)

	st, _ = e.ShowFinanceLast(root, 5)
	assert.Equal(t, bookstore.InvalidArgument, st)
}

func TestReopenPreservesState(t *testing.T) {
	dir := t.TempDir()
	e := newEngine(t, bookstore.WithRoot(dir))
	root := rootSession(t, e)
	require.Equal(t, bookstore.Success, e.AddBook(root, bookstore.Book{ISBN: "X", Title: "Kept", Price: 250, Quantity: 4}))
	st, _ := e.Purchase(root, "X", 2)
	require.Equal(t, bookstore.Success, st)
	require.Equal(t, bookstore.Success, e.Register("alice", "pw", "Alice"))
	require.NoError(t, e.Close())

	require.Equal(t, bookstore.Success, e.Initialize(false))

	// Sessions do not survive a re-initialize.
	st, _ = e.Search(root, bookstore.Book{})
	assert.Equal(t, bookstore.PermissionDenied, st)

	root = rootSession(t, e)
	assert.Equal(t, int64(2), lookup(t, e, root, "X").Quantity)
	assert.Equal(t, bookstore.FinanceRecord{Income: 500}, finance(t, e, root))
	st, _ = e.Login("alice", "pw")
	assert.Equal(t, bookstore.Success, st)
	assert.Equal(t, bookstore.Success, e.VerifyLedger(root))

	// A second engine on the same root sees the same data once the first
	// lets go of it.
	require.NoError(t, e.Close())
	other := newEngineNoReset(t, dir)
	otherRoot := rootSession(t, other)
	assert.Equal(t, "Kept", lookup(t, other, otherRoot, "X").Title)
}

func newEngineNoReset(t *testing.T, dir string) *bookstore.Engine {
	t.Helper()
	e, err := bookstore.New(
		bookstore.WithRoot(dir),
		bookstore.WithSyncWrites(false),
		bookstore.WithBcryptCost(bcrypt.MinCost),
		bookstore.WithLogger(logger.NewNop()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Shutdown() })
	require.Equal(t, bookstore.Success, e.Initialize(false))
	return e
}

func TestPrivileges(t *testing.T) {
	e := newEngine(t)
	root := rootSession(t, e)
	require.Equal(t, bookstore.Success, e.AddBook(root, bookstore.Book{ISBN: "X", Price: 10, Quantity: 5}))
	require.Equal(t, bookstore.Success, e.Register("cust", "pw", "Customer"))

	st, cust := e.Login("cust", "pw")
	require.Equal(t, bookstore.Success, st)
	assert.Equal(t, auth.ReadOnly, cust.Privilege())

	st, _ = e.Search(cust, bookstore.Book{})
	assert.Equal(t, bookstore.Success, st)
	st, _ = e.Purchase(cust, "X", 1)
	assert.Equal(t, bookstore.Success, st)

	assert.Equal(t, bookstore.PermissionDenied, e.Select(cust, "X"))
	assert.Equal(t, bookstore.PermissionDenied, e.AddBook(cust, bookstore.Book{ISBN: "Y"}))
	st, _ = e.ShowFinance(cust)
	assert.Equal(t, bookstore.PermissionDenied, st)
	assert.Equal(t, bookstore.PermissionDenied, e.VerifyLedger(cust))

	st, _ = e.Search(nil, bookstore.Book{})
	assert.Equal(t, bookstore.PermissionDenied, st)
}

func TestPrivileges_DeniedModifyKeepsCursor(t *testing.T) {
	policy := bookstore.DefaultPolicy()
	policy[bookstore.OpSelect] = auth.ReadOnly
	e := newEngine(t, bookstore.WithPolicy(policy))
	root := rootSession(t, e)
	require.Equal(t, bookstore.Success, e.AddBook(root, bookstore.Book{ISBN: "X", Price: 10, Quantity: 5}))
	require.Equal(t, bookstore.Success, e.Register("cust", "pw", ""))
	_, cust := e.Login("cust", "pw")

	require.Equal(t, bookstore.Success, e.Select(cust, "X"))
	assert.Equal(t, bookstore.PermissionDenied, e.Modify(cust, bookstore.Patch{Title: "x"}))
	_, ok := cust.Cursor().Selected()
	assert.True(t, ok)
}

func TestPolicyIsConfigurable(t *testing.T) {
	policy := bookstore.DefaultPolicy()
	policy[bookstore.OpShowFinance] = auth.ReadOnly
	e := newEngine(t, bookstore.WithPolicy(policy))
	// Later edits to the caller's map do not reach the engine.
	policy[bookstore.OpSearch] = auth.Admin

	require.Equal(t, bookstore.Success, e.Register("cust", "pw", ""))
	_, cust := e.Login("cust", "pw")
	st, _ := e.ShowFinance(cust)
	assert.Equal(t, bookstore.Success, st)
	st, _ = e.Search(cust, bookstore.Book{})
	assert.Equal(t, bookstore.Success, st)
}

func TestUserManagement(t *testing.T) {
	e := newEngine(t)
	root := rootSession(t, e)

	require.Equal(t, bookstore.Success, e.AddUser(root, "clerk", "pw", "Clerk", auth.Staff))
	assert.Equal(t, bookstore.DuplicateUser, e.AddUser(root, "clerk", "pw", "Clerk", auth.Staff))
	assert.Equal(t, bookstore.DuplicateUser, e.Register("root", "pw", "x"))
	assert.Equal(t, bookstore.PermissionDenied, e.AddUser(root, "boss", "pw", "Boss", auth.Admin))
	assert.Equal(t, bookstore.InvalidArgument, e.AddUser(root, "bad name", "pw", "x", auth.ReadOnly))

	st, clerk := e.Login("clerk", "pw")
	require.Equal(t, bookstore.Success, st)
	assert.Equal(t, bookstore.PermissionDenied, e.AddUser(clerk, "peer", "pw", "Peer", auth.Staff))
	assert.Equal(t, bookstore.Success, e.AddUser(clerk, "buyer", "pw", "Buyer", auth.ReadOnly))

	// Password changes.
	assert.Equal(t, bookstore.PermissionDenied, e.ChangePassword(clerk, "clerk", "pw2", ""))
	assert.Equal(t, bookstore.InvalidCredentials, e.ChangePassword(clerk, "clerk", "pw2", "wrong"))
	assert.Equal(t, bookstore.Success, e.ChangePassword(clerk, "clerk", "pw2", "pw"))
	assert.Equal(t, bookstore.Success, e.ChangePassword(root, "buyer", "reset", ""))
	assert.Equal(t, bookstore.NotFound, e.ChangePassword(root, "ghost", "reset", ""))
	st, _ = e.Login("buyer", "reset")
	assert.Equal(t, bookstore.Success, st)

	// Switching down needs no password; switching up or sideways is refused.
	st, asBuyer := e.SwitchUser(clerk, "buyer")
	require.Equal(t, bookstore.Success, st)
	assert.Equal(t, "buyer", asBuyer.Username())
	st, _ = e.SwitchUser(asBuyer, "clerk")
	assert.Equal(t, bookstore.PermissionDenied, st)
	st, _ = e.SwitchUser(root, "ghost")
	assert.Equal(t, bookstore.InvalidCredentials, st)

	// Deletion waits for every session of the user to end.
	assert.Equal(t, bookstore.PermissionDenied, e.DeleteUser(clerk, "buyer"))
	assert.Equal(t, bookstore.PermissionDenied, e.DeleteUser(root, "clerk"))
	assert.Equal(t, bookstore.Success, e.Logout(clerk))
	assert.Equal(t, bookstore.PermissionDenied, e.Logout(clerk))
	assert.Equal(t, bookstore.Success, e.DeleteUser(root, "clerk"))
	assert.Equal(t, bookstore.NotFound, e.DeleteUser(root, "clerk"))
	st, _ = e.Login("clerk", "pw2")
	assert.Equal(t, bookstore.InvalidCredentials, st)

	// Privilege changes are admin only and never self-service.
	assert.Equal(t, bookstore.Success, e.SetPrivilege(root, "buyer", auth.Staff))
	assert.Equal(t, bookstore.PermissionDenied, e.SetPrivilege(root, "root", auth.Staff))
	assert.Equal(t, bookstore.InvalidArgument, e.SetPrivilege(root, "buyer", auth.Privilege(4)))
}

func TestDeleteUser_RacingLogin(t *testing.T) {
	e := newEngine(t)
	root := rootSession(t, e)

	for i := 0; i < 30; i++ {
		require.Equal(t, bookstore.Success, e.Register("temp", "pw", "Temp"))

		var (
			wg      sync.WaitGroup
			loginSt bookstore.Status
			deleted bookstore.Status
			s       *bookstore.Session
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			loginSt, s = e.Login("temp", "pw")
		}()
		go func() {
			defer wg.Done()
			deleted = e.DeleteUser(root, "temp")
		}()
		wg.Wait()

		require.False(t, loginSt == bookstore.Success && deleted == bookstore.Success,
			"round %d: session opened for a deleted user", i)
		if loginSt == bookstore.Success {
			require.Equal(t, bookstore.PermissionDenied, deleted)
			require.Equal(t, bookstore.Success, e.Logout(s))
			require.Equal(t, bookstore.Success, e.DeleteUser(root, "temp"))
		}
	}
}

func TestLoginLockout(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	e := newEngine(t, bookstore.WithLockout(2, time.Minute, time.Hour), bookstore.WithClock(clock))

	for i := 0; i < 2; i++ {
		st, _ := e.Login("root", "guess")
		assert.Equal(t, bookstore.InvalidCredentials, st)
	}
	st, _ := e.Login("root", "sjtu")
	assert.Equal(t, bookstore.InvalidCredentials, st)

	mu.Lock()
	now = now.Add(time.Hour)
	mu.Unlock()
	st, _ = e.Login("root", "sjtu")
	assert.Equal(t, bookstore.Success, st)
}

func TestConcurrentPurchases(t *testing.T) {
	e := newEngine(t)
	root := rootSession(t, e)
	require.Equal(t, bookstore.Success, e.AddBook(root, bookstore.Book{ISBN: "X", Price: 700, Quantity: 10}))

	const buyers = 20
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		sold int
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			st, s := e.Login("root", "sjtu")
			if st != bookstore.Success {
				return
			}
			defer e.Logout(s)
			if st, _ := e.Purchase(s, "X", 1); st == bookstore.Success {
				mu.Lock()
				sold++
				mu.Unlock()
			}
			e.Search(s, bookstore.Book{ISBN: "X"})
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, sold)
	assert.Equal(t, int64(0), lookup(t, e, root, "X").Quantity)
	assert.Equal(t, int64(7000), finance(t, e, root).Income)
	assert.Equal(t, bookstore.Success, e.VerifyLedger(root))
}

func TestNotInitializedAndBadRoot(t *testing.T) {
	e, err := bookstore.New(bookstore.WithRoot(t.TempDir()), bookstore.WithLogger(logger.NewNop()))
	require.NoError(t, err)
	defer e.Shutdown()

	st, _ := e.Login("root", "sjtu")
	assert.Equal(t, bookstore.StorageFault, st)
	assert.Equal(t, bookstore.StorageFault, e.Register("a", "b", "c"))

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	bad, err := bookstore.New(bookstore.WithRoot(filepath.Join(file, "store")), bookstore.WithLogger(logger.NewNop()))
	require.NoError(t, err)
	defer bad.Shutdown()
	assert.Equal(t, bookstore.StorageFault, bad.Initialize(false))

	_, err = bookstore.New(bookstore.WithRoot(""))
	assert.Error(t, err)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "success", bookstore.Success.String())
	assert.Equal(t, "nothing selected", bookstore.NothingSelected.String())
	assert.Equal(t, "storage fault", bookstore.StorageFault.String())
	assert.Equal(t, "status(99)", bookstore.Status(99).String())
	assert.True(t, bookstore.Success.OK())
	assert.False(t, bookstore.NotFound.OK())
}
